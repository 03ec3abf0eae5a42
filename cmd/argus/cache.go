// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain cached query identifiers and snapshots",
	Long: `Cache manages the two kinds of stored state: provider query identifiers
(reused for 30 days by default) and dated source snapshots (reused until a
forced scrape).`,
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached query identifiers and source snapshots",
	RunE:  runCacheLs,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove query identifiers older than the TTL",
	RunE:  runCachePrune,
}

var cacheArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move every snapshot into the Archive subdirectory",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := snapshots().Archive()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Archived %d snapshot(s)\n", n)
		return nil
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <search_history.json>",
	Short: "Import query identifiers from a search history file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheImport,
}

func init() {
	cacheCmd.AddCommand(cacheLsCmd, cachePruneCmd, cacheArchiveCmd, cacheImportCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	keys, err := store.Keys(ctx)
	if err != nil {
		return err
	}
	sort.Strings(keys)
	now := time.Now()
	fmt.Fprintf(out, "Query identifiers (%s backend):\n", cfg.Cache.Backend)
	for _, k := range keys {
		e, ok := store.Get(ctx, k)
		if !ok {
			continue
		}
		state := "fresh"
		if !store.IsFresh(e, cfg.Cache.QueryTTL) {
			state = "stale"
		}
		fmt.Fprintf(out, "  %-40s  %-5s  %s\n", k, state, humanize.RelTime(e.CreatedAt, now, "ago", "from now"))
	}

	snaps, err := snapshots().List("")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Snapshots in %s:\n", cfg.Cache.SnapshotDir)
	for _, s := range snaps {
		fmt.Fprintf(out, "  %-16s  %s  %s\n", s.Source, s.Date, s.Path)
	}
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := cache.NewQueryIDCache(store, cfg.Cache.QueryTTL).Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d stale identifier(s)\n", n)
	return nil
}

func runCacheImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := cache.NewQueryIDCache(store, cfg.Cache.QueryTTL).ImportHistory(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d identifier(s) from %s\n", n, args[0])
	return nil
}
