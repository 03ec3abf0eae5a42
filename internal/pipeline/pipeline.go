// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline produces source datasets. A dataset is the newest dated
// snapshot of a source when one exists; otherwise the source is scraped,
// optionally enriched, and written as a new snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/scrape"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// ErrUnknownSource is returned for a source name with no registered scraper.
var ErrUnknownSource = errors.New("unknown source")

// Sources looks up scrapers by name.
type Sources interface {
	Get(name string) (scrape.Source, bool)
	Names() []string
}

// Enricher fills company metadata into scraped records.
type Enricher interface {
	EnrichRecords(ctx context.Context, records []types.CompanyRecord) ([]types.CompanyRecord, error)
}

// Dataset is one source's records and the snapshot they live in.
type Dataset struct {
	Source   string                `json:"source"`
	Snapshot cache.Snapshot        `json:"snapshot"`
	Records  []types.CompanyRecord `json:"records"`

	// Scraped is true when the records were fetched in this call rather
	// than read from an existing snapshot.
	Scraped bool `json:"scraped"`
}

// Pipeline loads or scrapes source datasets.
type Pipeline struct {
	sources  Sources
	snaps    *cache.Snapshots
	enricher Enricher
	log      *slog.Logger
}

// New returns a Pipeline. enricher may be nil to store records as scraped.
func New(sources Sources, snaps *cache.Snapshots, enricher Enricher, log *slog.Logger) *Pipeline {
	return &Pipeline{sources: sources, snaps: snaps, enricher: enricher, log: logging.OrDefault(log)}
}

// LoadOrScrape returns the latest snapshot of source. When force is set, or
// no snapshot exists yet, the source is scraped and a new snapshot written.
// Snapshots never expire on their own.
func (p *Pipeline) LoadOrScrape(ctx context.Context, source string, force bool) (Dataset, error) {
	src, ok := p.sources.Get(source)
	if !ok {
		return Dataset{}, fmt.Errorf("%q: %w", source, ErrUnknownSource)
	}

	if !force {
		snap, found, err := p.snaps.Latest(source)
		if err != nil {
			return Dataset{}, err
		}
		if found {
			records, err := p.snaps.Read(snap)
			if err == nil {
				p.log.Info("loaded snapshot", "source", source, "path", snap.Path, "records", len(records))
				return Dataset{Source: source, Snapshot: snap, Records: records}, nil
			}
			p.log.Warn("unreadable snapshot, scraping again", "source", source, "path", snap.Path, "error", err)
		}
	}
	return p.scrape(ctx, src)
}

func (p *Pipeline) scrape(ctx context.Context, src scrape.Source) (Dataset, error) {
	name := src.Name()
	p.log.Info("scraping", "source", name)

	records, err := src.Scrape(ctx)
	if err != nil {
		return Dataset{}, fmt.Errorf("scraping %s: %w", name, err)
	}

	if p.enricher != nil {
		enriched, err := p.enricher.EnrichRecords(ctx, records)
		if err != nil {
			return Dataset{}, fmt.Errorf("enriching %s: %w", name, err)
		}
		records = enriched
	}

	snap, err := p.snaps.Write(name, records)
	if err != nil {
		return Dataset{}, err
	}
	p.log.Info("wrote snapshot", "source", name, "path", snap.Path, "records", len(records))
	return Dataset{Source: name, Snapshot: snap, Records: records, Scraped: true}, nil
}

// LoadAll runs LoadOrScrape for each named source, or every registered
// source when names is empty. A failing source does not stop the others;
// their errors are joined.
func (p *Pipeline) LoadAll(ctx context.Context, names []string, force bool) ([]Dataset, error) {
	if len(names) == 0 {
		names = p.sources.Names()
	}
	var (
		out  []Dataset
		errs []error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ds, err := p.LoadOrScrape(ctx, name, force)
		if err != nil {
			p.log.Warn("source failed", "source", name, "error", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, ds)
	}
	return out, errors.Join(errs...)
}
