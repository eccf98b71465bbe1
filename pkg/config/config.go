// Package config loads the aicache YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prepforge/aicache/pkg/models"
)

// Config holds all aicache configuration. It is loaded once at startup and
// treated as immutable for the process lifetime.
type Config struct {
	Store      StoreConfig                       `yaml:"store"`
	Cache      CacheConfig                       `yaml:"cache"`
	Normalizer NormalizerConfig                  `yaml:"normalizer"`
	Pricing    map[string]models.ProviderPricing `yaml:"pricing"`
	Log        LogConfig                         `yaml:"log"`
}

// StoreConfig selects and locates the persistence backend.
// Backend is "sqlite" (default) or "file".
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the database file for sqlite, or the snapshot directory for
	// the file backend.
	Path string `yaml:"path"`
}

// CacheConfig controls matching, expiry, and capacity.
type CacheConfig struct {
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	MaxAge              time.Duration `yaml:"max_age"`
	MaxEntries          int           `yaml:"max_entries"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
}

// NormalizerConfig overrides the question opener phrases stripped before
// matching. Empty keeps the built-in table.
type NormalizerConfig struct {
	StripPrefixes []string `yaml:"strip_prefixes"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "aicache.db",
		},
		Cache: CacheConfig{
			SimilarityThreshold: 0.8,
			MaxAge:              24 * time.Hour,
			MaxEntries:          1000,
			SweepInterval:       5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the file when path is non-empty and falls back to
// defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// PriceTable converts the configured pricing section into the accounting
// table, falling back to the built-in prices when the section is absent.
func (c *Config) PriceTable() models.PriceTable {
	if len(c.Pricing) == 0 {
		return models.DefaultPriceTable()
	}
	table := make(models.PriceTable, len(c.Pricing))
	for provider, pricing := range c.Pricing {
		table[models.Provider(provider)] = pricing
	}
	return table
}
