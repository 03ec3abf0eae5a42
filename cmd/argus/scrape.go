// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [sources...]",
	Short: "Build source datasets from deal and IPO listings",
	Long: `Scrape loads the newest snapshot of each source, scraping the site only
when no snapshot exists or --force is given. New snapshots are written as
<source>_data_<date>.<format> in the snapshot directory. With no arguments
every source is processed.

Sources: marketinsights, cnbc, stockanalysis, renatus, rss.`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().Bool("force", false, "scrape even when a snapshot exists")
	scrapeCmd.Flags().Bool("enrich", false, "add company metadata before writing the snapshot")
	scrapeCmd.Flags().String("format", "", "snapshot format: json, csv, parquet (default from config)")
	scrapeCmd.Flags().Int("max-pages", 0, "listing pages per section (default from config)")
	scrapeCmd.Flags().StringSlice("feed", nil, "RSS or Atom feed URL for the rss source (repeatable)")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	withEnrich, _ := cmd.Flags().GetBool("enrich")
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Cache.SnapshotFormat = format
	}
	if n, _ := cmd.Flags().GetInt("max-pages"); n > 0 {
		cfg.Scrape.MaxPages = n
	}
	if feeds, _ := cmd.Flags().GetStringSlice("feed"); len(feeds) > 0 {
		cfg.Scrape.Feeds = feeds
	}

	p, reg, err := newPipeline(withEnrich)
	if err != nil {
		return err
	}
	for _, name := range args {
		if _, ok := reg.Get(name); !ok {
			return fmt.Errorf("unknown source %q (have %v)", name, reg.Names())
		}
	}

	datasets, err := p.LoadAll(cmd.Context(), args, force)
	out := cmd.OutOrStdout()
	for _, ds := range datasets {
		how := "loaded"
		if ds.Scraped {
			how = "scraped"
		}
		fmt.Fprintf(out, "  %-16s  %-7s  %4d record(s)  %s\n", ds.Source, how, len(ds.Records), ds.Snapshot.Path)
	}
	return err
}
