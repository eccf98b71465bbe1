package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepforge/aicache/pkg/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return s, dir
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s, dir := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	entries := []models.CacheEntry{{
		NormalizedKey:    "angular",
		OriginalQuestion: "What is Angular?",
		Answer:           json.RawMessage(`{"summary":"framework"}`),
		Provider:         models.ProviderOpenAI,
		Model:            "gpt-4o-mini",
		CreatedAt:        now,
		HitCount:         3,
	}}
	state := models.AccountingState{TotalRequests: 7, CacheHits: 3, EstimatedCostSaved: 0.0021}

	if err := s.Save(models.ProviderOpenAI, entries, state); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "openai_cache.json")); err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}

	got, gotState, err := s.Load(models.ProviderOpenAI)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].NormalizedKey != "angular" || string(got[0].Answer) != `{"summary":"framework"}` {
		t.Errorf("entry mangled: %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", got[0].CreatedAt, now)
	}
	if gotState != state {
		t.Errorf("accounting = %+v, want %+v", gotState, state)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	entries, state, err := s.Load(models.ProviderClaude)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 || state != (models.AccountingState{}) {
		t.Errorf("expected empty store, got %d entries, %+v", len(entries), state)
	}
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	s, dir := newTestStore(t)

	path := filepath.Join(dir, "openai_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, state, err := s.Load(models.ProviderOpenAI)
	if err != nil {
		t.Fatalf("corrupt snapshot must not error: %v", err)
	}
	if len(entries) != 0 || state != (models.AccountingState{}) {
		t.Errorf("expected empty store after corruption, got %d entries", len(entries))
	}
}

func TestLoadSkipsCorruptEntry(t *testing.T) {
	s, dir := newTestStore(t)

	content := `{
	  "entries": [
	    {"normalized_key": "good", "answer": {"a": 1}, "model": "gpt-4o-mini", "created_at": "2026-01-01T00:00:00Z"},
	    "not an object",
	    {"answer": {"b": 2}}
	  ],
	  "accounting": {"total_requests": 5, "cache_hits": 1, "estimated_cost_saved": 0.001}
	}`
	if err := os.WriteFile(filepath.Join(dir, "openai_cache.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, state, err := s.Load(models.ProviderOpenAI)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].NormalizedKey != "good" {
		t.Fatalf("expected only the valid entry, got %+v", entries)
	}
	if state.TotalRequests != 5 {
		t.Errorf("accounting lost: %+v", state)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s, dir := newTestStore(t)

	if err := s.Save(models.ProviderOpenAI, nil, models.AccountingState{}); err != nil {
		t.Fatal(err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name() != "openai_cache.json" {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Errorf("unexpected files after save: %v", names)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	s, _ := newTestStore(t)
	now := time.Now().UTC()

	first := []models.CacheEntry{{NormalizedKey: "a", Answer: json.RawMessage(`1`), CreatedAt: now}}
	second := []models.CacheEntry{{NormalizedKey: "b", Answer: json.RawMessage(`2`), CreatedAt: now}}

	if err := s.Save(models.ProviderOpenAI, first, models.AccountingState{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(models.ProviderOpenAI, second, models.AccountingState{}); err != nil {
		t.Fatal(err)
	}

	entries, _, err := s.Load(models.ProviderOpenAI)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].NormalizedKey != "b" {
		t.Errorf("expected replacement snapshot, got %+v", entries)
	}
}
