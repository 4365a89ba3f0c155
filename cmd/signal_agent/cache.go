package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/signal-agent/internal/db"
)

var cacheCommand = &cobra.Command{
	Use:   "cache",
	Short: "Manage the crawled-page cache",
}

var cachePruneCommand = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired pages from the cache",
	RunE:  runCachePruneCmd,
}

var cacheConfigPath string

func init() {
	cacheCommand.PersistentFlags().StringVar(&cacheConfigPath, "config", "configs/config.yml", "Path to config.yml")
	cacheCommand.AddCommand(cachePruneCommand)
	rootCmd.AddCommand(cacheCommand)
}

func runCachePruneCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cacheConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("no database configured (set DATABASE_URL or database_url)")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	deleted, err := database.DeleteExpiredPages(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired pages\n", deleted)
	return nil
}
