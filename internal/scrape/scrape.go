// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches public news and deal listings and turns them into
// CompanyRecord rows. Each site is a Source; all of them share a Fetcher
// that sends a browser user agent, spaces out requests, and backs off on
// HTTP 429.
//
// Scraping is best effort. A selector that matches nothing yields an
// *ExtractionError for that one field and the rest of the record is kept.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/NotAlvin/Argus-Pub/internal/httputil"
	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// ErrNotFound means a selector matched nothing on the page.
var ErrNotFound = errors.New("selector matched nothing")

// ExtractionError reports a field that could not be read from a page,
// usually because the site's markup changed.
type ExtractionError struct {
	URL   string
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s from %s: %v", e.Field, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Source scrapes one site into records.
type Source interface {
	Name() string
	Scrape(ctx context.Context) ([]types.CompanyRecord, error)
}

// Fetcher retrieves pages for every source. Consecutive requests are
// spaced by at least the configured delay.
type Fetcher struct {
	client *httputil.Client
	delay  time.Duration
	log    *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// NewFetcher returns a Fetcher using cfg's timeout, user agent, retries and delay.
func NewFetcher(cfg types.ScrapeConfig, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client: httputil.NewClient(cfg.HTTPConfig),
		delay:  cfg.Delay,
		log:    logging.OrDefault(log),
	}
}

// Get returns the body of url.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.log.Debug("fetching", "url", url)
	return f.client.Get(ctx, url)
}

// Document fetches url and parses it as HTML.
func (f *Fetcher) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	f.mu.Lock()
	next := f.last.Add(f.delay)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	f.last = next
	f.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Registry maps source names to sources.
type Registry struct {
	sources map[string]Source
}

// NewRegistry registers every built-in source. now supplies the reference
// time for relative listing dates; nil means time.Now.
func NewRegistry(f *Fetcher, cfg types.ScrapeConfig, now func() time.Time, log *slog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	log = logging.OrDefault(log)
	r := &Registry{sources: map[string]Source{}}
	r.Register(NewMarketInsights(f, cfg.MaxPages, now, log))
	r.Register(NewCNBC(f, now, log))
	r.Register(NewStockAnalysis(f, log))
	r.Register(NewRenatus(f, now, log))
	r.Register(NewRSS(f, cfg.Feeds, log))
	return r
}

// Register adds or replaces a source.
func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// clean collapses runs of whitespace into single spaces.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
