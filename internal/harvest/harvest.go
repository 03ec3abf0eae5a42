// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest fans a search query out over its entities. Each entity
// is resolved to a provider query, polled to completion, and normalized,
// on a bounded pool of workers. One entity failing never affects another.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/poll"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// ErrUnknownEntity is returned for a name that is in neither list of the query.
var ErrUnknownEntity = errors.New("entity is not in the query")

const (
	defaultConcurrency = 4
	defaultStagger     = 500 * time.Millisecond
	defaultBatchSize   = 5
)

// Resolver maps an entity to a provider query identifier.
type Resolver interface {
	Resolve(ctx context.Context, name string, entityType types.EntityType) (string, error)
}

// Poller waits for a provider query to complete.
type Poller interface {
	Fetch(ctx context.Context, id string) poll.Outcome
}

// Normalizer converts a completed provider response into articles.
type Normalizer interface {
	NormalizeResponse(ctx context.Context, resp *types.SearchResponse, q types.SearchQuery) ([]types.NewsArticle, int)
}

// Result is the outcome of one harvest run.
type Result struct {
	// RunID identifies the run in logs and batch files.
	RunID string

	// Articles maps each entity to its articles. Failed entities map to nil.
	Articles map[string][]types.NewsArticle

	// Failures maps entities that produced no results to the reason.
	Failures map[string]error

	// Completed lists entities in the order they finished.
	Completed []string
}

// Harvester runs queries. It is safe for concurrent use.
type Harvester struct {
	resolver   Resolver
	poller     Poller
	normalizer Normalizer
	cfg        types.HarvestConfig
	clock      poll.Clock
	log        *slog.Logger
}

// New returns a Harvester. Zero values in cfg take the defaults; a nil
// clock uses the wall clock.
func New(r Resolver, p Poller, n Normalizer, cfg types.HarvestConfig, clock poll.Clock, log *slog.Logger) *Harvester {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Stagger == 0 {
		cfg.Stagger = defaultStagger
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if clock == nil {
		clock = poll.RealClock
	}
	return &Harvester{
		resolver:   r,
		poller:     p,
		normalizer: n,
		cfg:        cfg,
		clock:      clock,
		log:        logging.OrDefault(log),
	}
}

// Harvest fetches articles for every entity in q. Entity i submits no
// earlier than i*Stagger after the run starts, whichever worker picks it up.
// Per-entity errors are recorded in Result.Failures; the returned error is
// non-nil only for an invalid query.
func (h *Harvester) Harvest(ctx context.Context, q types.SearchQuery) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{
		RunID:    uuid.NewString(),
		Articles: map[string][]types.NewsArticle{},
		Failures: map[string]error{},
	}
	log := h.log.With("run_id", res.RunID)
	entities := q.Entities()
	log.Info("harvest started", "entities", len(entities), "workers", h.cfg.Concurrency)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(h.cfg.Concurrency)
	start := h.clock.Now()
	for i, ent := range entities {
		g.Go(func() error {
			delay := max(start.Add(time.Duration(i)*h.cfg.Stagger).Sub(h.clock.Now()), 0)
			articles, err := h.runEntity(ctx, ent.Name, q, delay)
			if err == nil && h.cfg.BatchDir != "" {
				if _, werr := WriteBatches(h.cfg.BatchDir, ent.Name, articles, h.cfg.BatchSize); werr != nil {
					log.Warn("could not persist batches", "entity", ent.Name, "error", werr)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			res.Completed = append(res.Completed, ent.Name)
			res.Articles[ent.Name] = articles
			if err != nil {
				res.Failures[ent.Name] = err
				log.Warn("entity failed", "entity", ent.Name, "error", err)
			} else {
				log.Info("entity done", "entity", ent.Name, "articles", len(articles))
			}
			return nil
		})
	}
	g.Wait()

	log.Info("harvest finished", "entities", len(entities), "failed", len(res.Failures))
	return res, nil
}

// HarvestEntity fetches articles for one entity of q. A name in neither
// list yields no articles and ErrUnknownEntity.
func (h *Harvester) HarvestEntity(ctx context.Context, name string, q types.SearchQuery) ([]types.NewsArticle, error) {
	return h.runEntity(ctx, name, q, 0)
}

func (h *Harvester) runEntity(ctx context.Context, name string, q types.SearchQuery, delay time.Duration) (articles []types.NewsArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			articles, err = nil, fmt.Errorf("harvesting %s: panic: %v", name, r)
		}
	}()

	entityType, ok := q.TypeOf(name)
	if !ok {
		h.log.Warn("entity not in query, returning no articles", "entity", name)
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownEntity)
	}

	if delay > 0 {
		if err := h.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	id, err := h.resolver.Resolve(ctx, name, entityType)
	if err != nil {
		return nil, err
	}

	out := h.poller.Fetch(ctx, id)
	if out.State != poll.Completed {
		if out.Err != nil {
			return nil, out.Err
		}
		return nil, fmt.Errorf("query %s for %s ended %s", id, name, out.State)
	}

	articles, dropped := h.normalizer.NormalizeResponse(ctx, out.Response, q)
	h.log.Debug("normalized", "entity", name, "articles", len(articles), "dropped_by_since", dropped, "polls", out.Polls)
	if articles == nil {
		articles = []types.NewsArticle{}
	}
	return articles, nil
}

// Combine flattens per-entity results into one slice, entities in the
// given order.
func Combine(articles map[string][]types.NewsArticle, order []string) []types.NewsArticle {
	var out []types.NewsArticle
	for _, name := range order {
		out = append(out, articles[name]...)
	}
	return out
}
