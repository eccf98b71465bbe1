// Package sqlite persists provider cache snapshots in a SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/prepforge/aicache/pkg/models"
)

// Store durably persists cache entries and accounting counters, one logical
// record set per provider. Save replaces the provider's rows inside a
// single transaction, so readers never observe a partial snapshot.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	provider TEXT NOT NULL,
	normalized_key TEXT NOT NULL,
	original_question TEXT NOT NULL,
	answer BLOB NOT NULL,
	model TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	hit_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (provider, normalized_key)
);
`

const createAccountingTable = `
CREATE TABLE IF NOT EXISTS accounting (
	provider TEXT PRIMARY KEY,
	total_requests INTEGER NOT NULL,
	cache_hits INTEGER NOT NULL,
	cost_saved REAL NOT NULL
);
`

// New opens (creating if needed) the cache database at dbPath.
func New(dbPath string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	if _, err := db.Exec(createAccountingTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate accounting table: %w", err)
	}

	// tokens_used was added after the first release.
	if !columnExists(db, "cache_entries", "tokens_used") {
		if _, err := db.Exec(`ALTER TABLE cache_entries ADD COLUMN tokens_used INTEGER NOT NULL DEFAULT 0`); err != nil {
			db.Close()
			return nil, fmt.Errorf("add tokens_used column: %w", err)
		}
	}

	return &Store{db: db, log: log.With().Str("component", "sqlite-store").Logger()}, nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

// Load returns every persisted entry for the provider in created_at order,
// plus its accounting counters. Rows that fail to scan are skipped with a
// warning; they never abort the load.
func (s *Store) Load(provider models.Provider) ([]models.CacheEntry, models.AccountingState, error) {
	var state models.AccountingState
	err := s.db.QueryRow(
		`SELECT total_requests, cache_hits, cost_saved FROM accounting WHERE provider = ?`,
		string(provider),
	).Scan(&state.TotalRequests, &state.CacheHits, &state.EstimatedCostSaved)
	if err != nil && err != sql.ErrNoRows {
		return nil, models.AccountingState{}, fmt.Errorf("load accounting: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT normalized_key, original_question, answer, model, tokens_used, created_at, hit_count
		 FROM cache_entries WHERE provider = ? ORDER BY created_at ASC`,
		string(provider),
	)
	if err != nil {
		return nil, models.AccountingState{}, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []models.CacheEntry
	for rows.Next() {
		e := models.CacheEntry{Provider: provider}
		var createdAt time.Time
		if err := rows.Scan(&e.NormalizedKey, &e.OriginalQuestion, &e.Answer, &e.Model, &e.TokensUsed, &createdAt, &e.HitCount); err != nil {
			s.log.Warn().Err(err).Str("provider", string(provider)).Msg("skipping unreadable cache row")
			continue
		}
		e.CreatedAt = createdAt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return entries, state, fmt.Errorf("scan entries: %w", err)
	}
	return entries, state, nil
}

// Save replaces the provider's entries and accounting counters in one
// transaction.
func (s *Store) Save(provider models.Provider, entries []models.CacheEntry, state models.AccountingState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_entries WHERE provider = ?`, string(provider)); err != nil {
		return fmt.Errorf("clear provider rows: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO cache_entries (provider, normalized_key, original_question, answer, model, tokens_used, created_at, hit_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(
			string(provider), e.NormalizedKey, e.OriginalQuestion, []byte(e.Answer),
			e.Model, e.TokensUsed, e.CreatedAt.UTC(), e.HitCount,
		); err != nil {
			return fmt.Errorf("insert entry %q: %w", e.NormalizedKey, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO accounting (provider, total_requests, cache_hits, cost_saved)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(provider) DO UPDATE SET
			total_requests = excluded.total_requests,
			cache_hits = excluded.cache_hits,
			cost_saved = excluded.cost_saved`,
		string(provider), state.TotalRequests, state.CacheHits, state.EstimatedCostSaved,
	); err != nil {
		return fmt.Errorf("save accounting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
