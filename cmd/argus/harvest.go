// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/NotAlvin/Argus-Pub/internal/harvest"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Fetch news articles for people and companies",
	Long: `Harvest submits each name and company to the entity-news search
provider, polls until results are ready, and normalizes the articles with
summaries and sentiment. Queries come from --names/--companies or from a
query file (JSON lines or YAML). The combined, de-duplicated articles of each
query are written to the output directory.

With --from-batches, no provider calls are made: the batch files of an
earlier run are reloaded and combined instead.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringSlice("names", nil, "individuals to search for")
	harvestCmd.Flags().StringSlice("companies", nil, "companies to search for")
	harvestCmd.Flags().String("language", "en", "result language: en, zh-cn, zh-tw")
	harvestCmd.Flags().String("since", "", "keep articles published after this date (YYYY-MM-DD)")
	harvestCmd.Flags().String("queries", "", "query file (.json lines or .yaml)")
	harvestCmd.Flags().String("batch-dir", "", "persist per-entity batch files here")
	harvestCmd.Flags().String("output", "", "output file (default: <output_dir>/<entities>_articles_combined.json)")
	harvestCmd.Flags().Bool("from-batches", false, "combine existing batch files instead of querying")

	rootCmd.AddCommand(harvestCmd)
}

func queriesFromFlags(cmd *cobra.Command) ([]types.SearchQuery, error) {
	if path, _ := cmd.Flags().GetString("queries"); path != "" {
		return harvest.LoadQueries(path)
	}

	names, _ := cmd.Flags().GetStringSlice("names")
	companies, _ := cmd.Flags().GetStringSlice("companies")
	lang, _ := cmd.Flags().GetString("language")
	q := types.SearchQuery{Names: names, Companies: companies, Language: types.Language(lang)}

	if since, _ := cmd.Flags().GetString("since"); since != "" {
		t, err := time.Parse(types.DateLayout, since)
		if err != nil {
			return nil, fmt.Errorf("--since: %w", err)
		}
		q.Since = &t
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("provide --names, --companies, or --queries: %w", err)
	}
	return []types.SearchQuery{q}, nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	queries, err := queriesFromFlags(cmd)
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("batch-dir"); dir != "" {
		cfg.Harvest.BatchDir = dir
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "" && len(queries) > 1 {
		return fmt.Errorf("--output needs a single query; the query file has %d", len(queries))
	}
	fromBatches, _ := cmd.Flags().GetBool("from-batches")
	if fromBatches && cfg.Harvest.BatchDir == "" {
		return fmt.Errorf("--from-batches needs --batch-dir or harvest.batch_dir")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var h *harvest.Harvester
	if !fromBatches {
		hv, store, err := newHarvester(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		h = hv
	}

	failed := 0
	for _, q := range queries {
		order := entityNames(q)

		var articles map[string][]types.NewsArticle
		if fromBatches {
			articles, err = harvest.ReadBatches(cfg.Harvest.BatchDir, q)
			if err != nil {
				return err
			}
		} else {
			res, err := h.Harvest(ctx, q)
			if err != nil {
				return err
			}
			for _, name := range res.Completed {
				if ferr, bad := res.Failures[name]; bad {
					fmt.Fprintf(out, "  %-30s  failed: %v\n", name, ferr)
				} else {
					fmt.Fprintf(out, "  %-30s  %d article(s)\n", name, len(res.Articles[name]))
				}
			}
			failed += len(res.Failures)
			articles = res.Articles
		}

		path := output
		if path == "" {
			path = filepath.Join(cfg.Harvest.OutputDir, harvest.OutputName(q))
		}
		combined := harvest.Combine(articles, order)
		if err := harvest.WriteOutput(path, combined); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s (%d article(s) before de-duplication)\n", path, len(combined))
	}

	if failed > 0 {
		return fmt.Errorf("%d entity(ies) failed", failed)
	}
	return nil
}

func entityNames(q types.SearchQuery) []string {
	var names []string
	for _, e := range q.Entities() {
		names = append(names, e.Name)
	}
	return names
}
