// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich adds company metadata to scraped records: country,
// industry, sector, contact details, executives and shareholders, all read
// from the company's detail page.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/scrape"
	"github.com/NotAlvin/Argus-Pub/internal/textmodel"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

const defaultConcurrency = 4

// PageSource fetches and parses company detail pages.
type PageSource interface {
	CompanyPage(ctx context.Context, link string) (scrape.CompanyPage, error)
}

// Enrichment is the metadata read for one company.
type Enrichment struct {
	Country      string              `json:"country" yaml:"country"`
	Industry     string              `json:"industry" yaml:"industry"`
	Sector       string              `json:"sector,omitempty" yaml:"sector,omitempty"`
	Contact      types.ContactBlock  `json:"contact" yaml:"contact"`
	Executives   []types.Person      `json:"executives,omitempty" yaml:"executives,omitempty"`
	Shareholders []types.Shareholder `json:"shareholders,omitempty" yaml:"shareholders,omitempty"`
}

// Enricher reads company pages and infers where each company is based.
// It is safe for concurrent use.
type Enricher struct {
	pages       PageSource
	embedder    textmodel.Embedder
	tables      *Tables
	concurrency int
	log         *slog.Logger

	group singleflight.Group
}

// New returns an Enricher. tables may be nil to use the embedded
// reference data; embedder may be nil, in which case ties between
// candidate countries resolve to the first in lexical order.
func New(pages PageSource, embedder textmodel.Embedder, tables *Tables, cfg types.EnrichConfig, log *slog.Logger) (*Enricher, error) {
	if tables == nil {
		var err error
		if tables, err = DefaultTables(); err != nil {
			return nil, err
		}
	}
	n := cfg.Concurrency
	if n <= 0 {
		n = defaultConcurrency
	}
	return &Enricher{
		pages:       pages,
		embedder:    embedder,
		tables:      tables,
		concurrency: n,
		log:         logging.OrDefault(log),
	}, nil
}

// Enrich reads the company page at link. Fields the page does not yield
// stay empty, and Country and Industry fall back to "Unknown". An error is
// returned only when the page itself could not be fetched; the returned
// Enrichment then carries the Unknown defaults.
func (e *Enricher) Enrich(ctx context.Context, link string) (Enrichment, error) {
	out := Enrichment{Country: types.UnknownValue, Industry: types.UnknownValue}

	page, err := e.pages.CompanyPage(ctx, link)
	if err != nil {
		return out, fmt.Errorf("enriching %s: %w", link, err)
	}
	for _, ferr := range page.Errors {
		e.log.Debug("field unavailable", "link", link, "error", ferr)
	}

	out.Sector = page.Sector
	switch {
	case page.Industry != "":
		out.Industry = page.Industry
	case page.Sector != "":
		out.Industry = page.Sector
	}
	out.Contact = page.Contact
	out.Executives = GroupPeople(page.People())
	out.Shareholders = page.Shareholders

	out.Country = e.InferCountry(ctx, page.Contact)
	if out.Country == types.UnknownValue && page.Country != "" {
		out.Country = page.Country
	}
	return out, nil
}

// InferCountry places a company from its contact block. Phone and address
// candidates are combined; a single survivor is returned as is, several
// are ranked by similarity to the address text, and none yields "Unknown".
func (e *Enricher) InferCountry(ctx context.Context, c types.ContactBlock) string {
	set := Combine(e.tables.FromPhone(c.Phone), e.tables.FromAddress(c.Address))
	delete(set, types.UnknownValue)

	candidates := set.Sorted()
	switch len(candidates) {
	case 0:
		return types.UnknownValue
	case 1:
		return candidates[0]
	}
	if e.embedder == nil || strings.TrimSpace(c.Address) == "" {
		return candidates[0]
	}
	best, _, err := textmodel.BestMatch(ctx, e.embedder, c.Address, candidates)
	if err != nil {
		e.log.Debug("country tie-break failed", "address", c.Address, "error", err)
		return candidates[0]
	}
	return best
}

// GroupPeople merges listings of the same (name, title). Functions are
// concatenated in first-seen order without duplicates; other fields come
// from the first listing.
func GroupPeople(people []types.Person) []types.Person {
	type key struct{ name, title string }
	index := map[key]int{}
	var out []types.Person
	for _, p := range people {
		k := key{p.Name, p.Title}
		i, ok := index[k]
		if !ok {
			p.Functions = appendUnique(nil, p.Functions...)
			index[k] = len(out)
			out = append(out, p)
			continue
		}
		out[i].Functions = appendUnique(out[i].Functions, p.Functions...)
		if out[i].Age == "" {
			out[i].Age = p.Age
		}
		if out[i].Since == "" {
			out[i].Since = p.Since
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, d := range dst {
			if d == it {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, it)
		}
	}
	return dst
}

// EnrichRecords returns a copy of records with company metadata filled
// in. The input slice and its nested slices are not modified. Each
// distinct company page is fetched once; concurrent callers asking for the
// same page share one fetch. Records whose page fails keep their own
// fields, with Country and Industry defaulting to "Unknown".
func (e *Enricher) EnrichRecords(ctx context.Context, records []types.CompanyRecord) ([]types.CompanyRecord, error) {
	var links []string
	seen := map[string]bool{}
	for _, rec := range records {
		if rec.CompanyLink != "" && !seen[rec.CompanyLink] {
			seen[rec.CompanyLink] = true
			links = append(links, rec.CompanyLink)
		}
	}

	results := make([]*Enrichment, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, link := range links {
		g.Go(func() error {
			v, err, _ := e.group.Do(link, func() (any, error) {
				return e.Enrich(gctx, link)
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.log.Warn("enrichment failed", "link", link, "error", err)
				return nil
			}
			en := v.(Enrichment)
			results[i] = &en
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byLink := make(map[string]*Enrichment, len(links))
	for i, link := range links {
		byLink[link] = results[i]
	}
	out := make([]types.CompanyRecord, len(records))
	for i, rec := range records {
		out[i] = apply(rec, byLink[rec.CompanyLink])
	}
	e.log.Info("enriched", "records", len(records), "companies", len(links))
	return out, nil
}

// apply merges en into a copy of rec. Fields already set on rec win,
// except a Country or Industry of "Unknown".
func apply(rec types.CompanyRecord, en *Enrichment) types.CompanyRecord {
	rec.Executives = append([]types.Person(nil), rec.Executives...)
	rec.Shareholders = append([]types.Shareholder(nil), rec.Shareholders...)

	if en != nil {
		if known(en.Country) && !known(rec.Country) {
			rec.Country = en.Country
		}
		if known(en.Industry) && !known(rec.Industry) {
			rec.Industry = en.Industry
		}
		if rec.Sector == "" {
			rec.Sector = en.Sector
		}
		if len(rec.Executives) == 0 {
			rec.Executives = append(rec.Executives, en.Executives...)
		}
		if len(rec.Shareholders) == 0 {
			rec.Shareholders = append(rec.Shareholders, en.Shareholders...)
		}
		if rec.CompanyName == "" {
			rec.CompanyName = en.Contact.Name
		}
	}
	if rec.Country == "" {
		rec.Country = types.UnknownValue
	}
	if rec.Industry == "" {
		rec.Industry = types.UnknownValue
	}
	return rec
}

func known(s string) bool { return s != "" && s != types.UnknownValue }
