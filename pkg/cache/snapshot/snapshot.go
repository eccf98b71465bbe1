// Package snapshot persists provider cache snapshots as one JSON file per
// provider, written atomically via temp-file-and-rename.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/prepforge/aicache/pkg/models"
)

// Store keeps <dir>/<provider>_cache.json per provider. Corrupt files load
// as empty with a warning; a corrupt individual entry is skipped and the
// rest of the file loads normally.
type Store struct {
	dir string
	log zerolog.Logger
}

type fileV1 struct {
	Entries    []models.CacheEntry    `json:"entries"`
	Accounting models.AccountingState `json:"accounting"`
}

// rawFileV1 mirrors fileV1 with undecoded entries so one bad entry cannot
// poison the whole snapshot.
type rawFileV1 struct {
	Entries    []json.RawMessage      `json:"entries"`
	Accounting models.AccountingState `json:"accounting"`
}

// New creates the snapshot directory if needed and returns a Store.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Store{dir: dir, log: log.With().Str("component", "snapshot-store").Logger()}, nil
}

func (s *Store) path(provider models.Provider) string {
	return filepath.Join(s.dir, string(provider)+"_cache.json")
}

// Load reads the provider's snapshot file. A missing file is an empty
// store; an unreadable or unparsable file is an empty store with a warning.
func (s *Store) Load(provider models.Provider) ([]models.CacheEntry, models.AccountingState, error) {
	data, err := os.ReadFile(s.path(provider))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.AccountingState{}, nil
		}
		s.log.Warn().Err(err).Str("provider", string(provider)).Msg("snapshot unreadable, starting empty")
		return nil, models.AccountingState{}, nil
	}

	var raw rawFileV1
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warn().Err(err).Str("provider", string(provider)).Msg("snapshot corrupt, starting empty")
		return nil, models.AccountingState{}, nil
	}

	entries := make([]models.CacheEntry, 0, len(raw.Entries))
	for _, msg := range raw.Entries {
		var e models.CacheEntry
		if err := json.Unmarshal(msg, &e); err != nil || e.NormalizedKey == "" {
			s.log.Warn().Err(err).Str("provider", string(provider)).Msg("skipping corrupt snapshot entry")
			continue
		}
		e.Provider = provider
		entries = append(entries, e)
	}
	return entries, raw.Accounting, nil
}

// Save writes the full provider snapshot, replacing the previous file only
// once the new one is fully on disk.
func (s *Store) Save(provider models.Provider, entries []models.CacheEntry, state models.AccountingState) error {
	if entries == nil {
		entries = []models.CacheEntry{}
	}
	data, err := json.MarshalIndent(fileV1{Entries: entries, Accounting: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, string(provider)+"_cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path(provider)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Close is a no-op; files are closed per operation.
func (s *Store) Close() error {
	return nil
}
