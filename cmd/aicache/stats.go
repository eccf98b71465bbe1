package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/prepforge/aicache/pkg/config"
	"github.com/prepforge/aicache/pkg/models"
)

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache hit rates and estimated savings per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			c, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tENTRIES\tREQUESTS\tHITS\tHIT RATE\tSAVED")

			var providers []models.ProviderStats
			for _, p := range c.Providers() {
				providers = append(providers, c.Stats(p))
			}
			for _, s := range providers {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f%%\t$%.4f\n",
					s.Provider, s.Entries, s.TotalRequests, s.CacheHits, s.HitRatePercent, s.EstimatedCostSaved)
			}

			agg := c.AggregateStats()
			fmt.Fprintf(w, "total\t\t%d\t%d\t%.1f%%\t$%.4f\n",
				agg.TotalRequests, agg.CacheHits, agg.HitRatePercent, agg.EstimatedCostSaved)
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}
