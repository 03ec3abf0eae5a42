// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// ErrNoFeeds is returned when the rss source has nothing configured.
var ErrNoFeeds = errors.New("no feeds configured")

// RSS reads configured RSS or Atom feeds.
type RSS struct {
	f     *Fetcher
	feeds []string
	log   *slog.Logger
}

// NewRSS returns the rss source.
func NewRSS(f *Fetcher, feeds []string, log *slog.Logger) *RSS {
	return &RSS{f: f, feeds: feeds, log: log}
}

func (r *RSS) Name() string { return "rss" }

// Scrape reads every feed. Feeds that fail are skipped; Scrape fails only
// when none could be read.
func (r *RSS) Scrape(ctx context.Context) ([]types.CompanyRecord, error) {
	if len(r.feeds) == 0 {
		return nil, fmt.Errorf("scraping %s: %w", r.Name(), ErrNoFeeds)
	}
	parser := gofeed.NewParser()

	var (
		records []types.CompanyRecord
		lastErr error
		ok      int
	)
	for _, url := range r.feeds {
		body, err := r.f.Get(ctx, url)
		if err == nil {
			var feed *gofeed.Feed
			feed, err = parser.Parse(bytes.NewReader(body))
			if err == nil {
				records = append(records, feedRecords(feed, url)...)
				ok++
				continue
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("feed unavailable", "url", url, "error", err)
		lastErr = err
	}
	if ok == 0 {
		return nil, fmt.Errorf("scraping %s: %w", r.Name(), lastErr)
	}
	r.log.Info("scraped", "source", r.Name(), "feeds", ok, "records", len(records))
	return records, nil
}

func feedRecords(feed *gofeed.Feed, url string) []types.CompanyRecord {
	source := clean(feed.Title)
	if source == "" {
		source = url
	}
	out := make([]types.CompanyRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		rec := types.CompanyRecord{
			Title:          clean(item.Title),
			Link:           strings.TrimSpace(item.Link),
			Source:         source,
			Category:       strings.Join(item.Categories, ", "),
			Description:    stripHTML(item.Description),
			ArticleContent: stripHTML(item.Content),
		}
		switch {
		case item.PublishedParsed != nil:
			rec.Date = item.PublishedParsed.Format(types.DateLayout)
		case item.Published != "":
			if t, err := dateparse.ParseAny(item.Published); err == nil {
				rec.Date = t.Format(types.DateLayout)
			}
		}
		if item.Image != nil {
			rec.Image = item.Image.URL
		}
		out = append(out, rec)
	}
	return out
}

// stripHTML returns the text of an HTML fragment.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return clean(doc.Text())
}
