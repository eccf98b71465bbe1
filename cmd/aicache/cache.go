package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prepforge/aicache/pkg/config"
	"github.com/prepforge/aicache/pkg/models"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached AI responses",
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove expired entries from every provider",
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

			total := 0
			for _, p := range c.Providers() {
				total += c.PurgeExpired(p)
			}
			fmt.Printf("Purged %d expired entries.\n", total)
			return nil
		},
	}

	var (
		provider   string
		resetStats bool
	)
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached entries for one provider or all",
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

			if provider != "" {
				c.Clear(models.Provider(provider), resetStats)
				fmt.Printf("Cache cleared for %s.\n", provider)
				return nil
			}
			for _, p := range c.Providers() {
				c.Clear(p, resetStats)
			}
			fmt.Println("Cache cleared for all providers.")
			return nil
		},
	}
	clearCmd.Flags().StringVar(&provider, "provider", "", "clear only this provider")
	clearCmd.Flags().BoolVar(&resetStats, "reset-stats", false, "also zero the accounting counters")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.AddCommand(purgeCmd, clearCmd)
	return cmd
}
