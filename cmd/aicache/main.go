package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prepforge/aicache/pkg/cache"
	"github.com/prepforge/aicache/pkg/cache/snapshot"
	"github.com/prepforge/aicache/pkg/cache/sqlite"
	"github.com/prepforge/aicache/pkg/config"
	"github.com/prepforge/aicache/pkg/logging"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "aicache",
		Short:   "aicache — semantic response cache for AI providers",
		Version: version,
	}

	root.AddCommand(
		newStatsCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openCache wires the configured backend into a cache facade. The CLI runs
// one operation and exits, so the sweeper is disabled.
func openCache(cfg *config.Config) (*cache.Cache, error) {
	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	persist, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	return cache.New(cache.Config{
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		MaxAge:              cfg.Cache.MaxAge,
		MaxEntries:          cfg.Cache.MaxEntries,
		StripPrefixes:       cfg.Normalizer.StripPrefixes,
		Pricing:             cfg.PriceTable(),
	}, persist, logger), nil
}

func openStore(cfg *config.Config, logger zerolog.Logger) (cache.Persister, error) {
	switch cfg.Store.Backend {
	case "sqlite", "":
		return sqlite.New(cfg.Store.Path, logger)
	case "file":
		return snapshot.New(cfg.Store.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want sqlite or file)", cfg.Store.Backend)
	}
}
