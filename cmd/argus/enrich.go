// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
	"github.com/NotAlvin/Argus-Pub/internal/scrape"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <snapshot-file | company-url>",
	Short: "Add country, industry, and leadership data to company records",
	Long: `Enrich reads the company detail page of every record in a snapshot file
and fills in country, industry, sector, executives, and shareholders. The
input file is left unchanged; the enriched records go to --out (default:
<name>_enriched.<ext> next to the input).

Given a company page URL instead of a file, enrich prints that company's
metadata as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("out", "", "output file; the extension picks json, csv, parquet, or yaml")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f := scrape.NewFetcher(cfg.Scrape, logger)
	e, err := newEnricher(f)
	if err != nil {
		return err
	}

	target := args[0]
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		en, err := e.Enrich(ctx, target)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(en)
	}

	records, err := cache.ReadSnapshotFile(target)
	if err != nil {
		return err
	}
	enriched, err := e.EnrichRecords(ctx, records)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		ext := filepath.Ext(target)
		out = strings.TrimSuffix(target, ext) + "_enriched" + ext
	}
	switch strings.ToLower(filepath.Ext(out)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(enriched)
		if err != nil {
			return err
		}
		if err := cache.WriteFileAtomic(out, data); err != nil {
			return err
		}
	default:
		if err := cache.WriteSnapshotFile(out, enriched); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enriched %d record(s) into %s\n", len(enriched), out)
	return nil
}
