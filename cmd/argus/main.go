// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the argus CLI. Each pipeline stage is
// a subcommand: harvest queries the entity-news provider, scrape builds
// source datasets, enrich adds company metadata, cache manages stored
// state, and serve exposes the datasets to the dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NotAlvin/Argus-Pub/internal/config"
	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/secrets"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// inferenceKeySecret is the secrets file holding the inference endpoint key.
const inferenceKeySecret = "inference-api-key"

var (
	// cfg is the configuration loaded before every command runs.
	cfg *types.Config

	// loadedSecrets holds API keys loaded from the secrets directory at startup.
	loadedSecrets map[string]string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Prospecting data pipeline: news harvest, site scraping, and enrichment",
	Long: `argus collects prospecting data. It queries an entity-news search
provider for people and companies, scrapes deal and IPO listings from
financial sites, enriches company records with country, industry, and
leadership data, and serves the stored datasets to the dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s

		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		config.ApplySecrets(c, s)
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		cfg = c

		logger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		slog.SetDefault(logger)
		if len(s) > 0 {
			logger.Debug("loaded secrets", "keys", secrets.Names(s))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./argus.yaml or ~/.config/argus/argus.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
