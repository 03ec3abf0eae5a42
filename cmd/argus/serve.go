// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/NotAlvin/Argus-Pub/internal/api"
	"github.com/NotAlvin/Argus-Pub/internal/scrape"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored datasets to the dashboard",
	Long: `Serve starts a read-only JSON API over the snapshot directory and the
harvest output directory:

  GET /healthz                 liveness
  GET /api/sources             sources and their newest snapshot
  GET /api/sources/:name       records of a source's newest snapshot
                               (?country= and ?industry= filter)
  GET /api/articles            newest combined harvest output`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.API.Addr
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := scrape.NewRegistry(scrape.NewFetcher(cfg.Scrape, logger), cfg.Scrape, nil, logger)
	h := api.NewHandler(snapshots(), reg.Names(), cfg.Harvest.OutputDir, logger)
	return api.Serve(cmd.Context(), addr, api.NewRouter(h, logger), logger)
}
