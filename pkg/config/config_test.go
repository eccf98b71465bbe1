package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prepforge/aicache/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Cache.SimilarityThreshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %v", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Cache.MaxAge != 24*time.Hour {
		t.Errorf("expected 24h max age, got %v", cfg.Cache.MaxAge)
	}
	if cfg.Cache.MaxEntries != 1000 {
		t.Errorf("expected 1000 max entries, got %d", cfg.Cache.MaxEntries)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_CACHE_DIR", "/var/lib/aicache")

	content := `
store:
  backend: file
  path: ${TEST_CACHE_DIR}
cache:
  similarity_threshold: 0.75
  max_age: 12h
  max_entries: 250
normalizer:
  strip_prefixes:
    - "what is"
    - "define"
pricing:
  openai:
    default_model: gpt-4o-mini
    per_request:
      gpt-4o-mini: 0.0005
log:
  level: debug
  pretty: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "aicache.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Store.Backend != "file" {
		t.Errorf("expected file backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Path != "/var/lib/aicache" {
		t.Errorf("env var not expanded: got %s", cfg.Store.Path)
	}
	if cfg.Cache.MaxAge != 12*time.Hour {
		t.Errorf("expected 12h max age, got %v", cfg.Cache.MaxAge)
	}
	if cfg.Cache.SimilarityThreshold != 0.75 {
		t.Errorf("expected threshold 0.75, got %v", cfg.Cache.SimilarityThreshold)
	}
	if len(cfg.Normalizer.StripPrefixes) != 2 {
		t.Fatalf("expected 2 strip prefixes, got %d", len(cfg.Normalizer.StripPrefixes))
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("log config not loaded: %+v", cfg.Log)
	}

	table := cfg.PriceTable()
	price, exact := table.PriceFor(models.ProviderOpenAI, "gpt-4o-mini")
	if !exact || price != 0.0005 {
		t.Errorf("pricing not loaded: price=%v exact=%v", price, exact)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/aicache.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected defaults, got %+v", cfg.Store)
	}
}

func TestPriceTableFallsBackToDefaults(t *testing.T) {
	cfg := Default()
	table := cfg.PriceTable()
	if _, ok := table[models.ProviderOpenAI]; !ok {
		t.Error("expected built-in openai pricing")
	}
	if _, ok := table[models.ProviderClaude]; !ok {
		t.Error("expected built-in claude pricing")
	}
}
