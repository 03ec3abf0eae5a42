// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
	"github.com/NotAlvin/Argus-Pub/internal/config"
	"github.com/NotAlvin/Argus-Pub/internal/enrich"
	"github.com/NotAlvin/Argus-Pub/internal/harvest"
	"github.com/NotAlvin/Argus-Pub/internal/normalize"
	"github.com/NotAlvin/Argus-Pub/internal/pipeline"
	"github.com/NotAlvin/Argus-Pub/internal/poll"
	"github.com/NotAlvin/Argus-Pub/internal/provider"
	"github.com/NotAlvin/Argus-Pub/internal/resolve"
	"github.com/NotAlvin/Argus-Pub/internal/scrape"
	"github.com/NotAlvin/Argus-Pub/internal/textmodel"
)

func models() textmodel.Models {
	return textmodel.New(cfg.Model, loadedSecrets[inferenceKeySecret])
}

func snapshots() *cache.Snapshots {
	return cache.NewSnapshots(cfg.Cache.SnapshotDir, cfg.Cache.SnapshotFormat)
}

// openStore opens the configured cache backend. Callers close the store.
func openStore(ctx context.Context) (*cache.Store, error) {
	b, err := cache.OpenBackend(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Cache.Backend, err)
	}
	return cache.NewStore(b, cache.WithLogger(logger)), nil
}

func newEnricher(f *scrape.Fetcher) (*enrich.Enricher, error) {
	return enrich.New(f, models().Embedder, nil, cfg.Enrich, logger)
}

// newHarvester wires the provider client, query cache, poller, and
// normalizer. The returned store must be closed by the caller.
func newHarvester(ctx context.Context) (*harvest.Harvester, *cache.Store, error) {
	if err := config.RequireProvider(cfg); err != nil {
		return nil, nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	client := provider.New(cfg.Provider)
	ids := cache.NewQueryIDCache(store, cfg.Cache.QueryTTL)
	pages := scrape.NewFetcher(cfg.Scrape, logger)
	norm := normalize.New(models(), pages, normalize.Options{
		Sentinels:   cfg.Harvest.BotSentinels,
		FetchImages: cfg.Harvest.FetchImages,
	}, logger)

	h := harvest.New(
		resolve.New(client, ids, logger),
		poll.New(client, cfg.Poll, nil, logger),
		norm,
		cfg.Harvest,
		nil,
		logger,
	)
	return h, store, nil
}

// newPipeline wires the scrapers and snapshot store. Enrichment runs only
// when withEnrich is set.
func newPipeline(withEnrich bool) (*pipeline.Pipeline, *scrape.Registry, error) {
	f := scrape.NewFetcher(cfg.Scrape, logger)
	reg := scrape.NewRegistry(f, cfg.Scrape, nil, logger)

	var en pipeline.Enricher
	if withEnrich {
		e, err := newEnricher(f)
		if err != nil {
			return nil, nil, err
		}
		en = e
	}
	return pipeline.New(reg, snapshots(), en, logger), reg, nil
}
