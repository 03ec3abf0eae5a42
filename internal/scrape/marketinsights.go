// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// MarketScreenerURL is the site root. Tests point it at an httptest server.
var MarketScreenerURL = "https://www.marketscreener.com"

// MarketScreenerSections are the company news listings scraped, in order.
var MarketScreenerSections = []string{"IPO", "mergers-acquisitions", "rumors"}

const marketScreenerArticle = "div.txt-s4.article-text p"

// MarketInsights scrapes MarketScreener's IPO, M&A and rumor listings.
type MarketInsights struct {
	f        *Fetcher
	maxPages int
	now      func() time.Time
	log      *slog.Logger
}

// NewMarketInsights returns the marketinsights source.
func NewMarketInsights(f *Fetcher, maxPages int, now func() time.Time, log *slog.Logger) *MarketInsights {
	if maxPages < 1 {
		maxPages = 1
	}
	return &MarketInsights{f: f, maxPages: maxPages, now: now, log: log}
}

func (m *MarketInsights) Name() string { return "marketinsights" }

// Scrape reads every listing section, then fetches each article's text.
// A section that fails is logged and skipped; Scrape fails only when no
// section could be read.
func (m *MarketInsights) Scrape(ctx context.Context) ([]types.CompanyRecord, error) {
	var (
		records []types.CompanyRecord
		failed  int
		lastErr error
	)
	for _, section := range MarketScreenerSections {
		for page := 1; page <= m.maxPages; page++ {
			url := fmt.Sprintf("%s/news/companies/%s/", MarketScreenerURL, section)
			if page > 1 {
				url = fmt.Sprintf("%s?p=%d", url, page)
			}
			doc, err := m.f.Document(ctx, url)
			if err != nil {
				m.log.Warn("listing unavailable", "source", m.Name(), "section", section, "page", page, "error", err)
				failed++
				lastErr = err
				break
			}
			rows := m.parseListing(doc, section)
			records = append(records, rows...)
			if len(rows) == 0 {
				break
			}
		}
	}
	if failed == len(MarketScreenerSections) {
		return nil, fmt.Errorf("scraping %s: %w", m.Name(), lastErr)
	}

	for i := range records {
		text, err := m.f.ArticleText(ctx, records[i].Link, marketScreenerArticle)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.log.Debug("article text unavailable", "link", records[i].Link, "error", err)
			continue
		}
		records[i].ArticleContent = text
	}
	m.log.Info("scraped", "source", m.Name(), "records", len(records))
	return records, nil
}

func (m *MarketInsights) parseListing(doc *goquery.Document, section string) []types.CompanyRecord {
	var out []types.CompanyRecord
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		news := tr.Find("a.link--no-underline").First()
		ticker := tr.Find("a.link--blue").First()
		when := tr.Find("time").First()
		badge := tr.Find("span.badge--small").First()
		if news.Length() == 0 || ticker.Length() == 0 || when.Length() == 0 || badge.Length() == 0 {
			return
		}

		href, _ := news.Attr("href")
		link := MarketScreenerURL + strings.TrimSpace(href)
		source, _ := badge.Attr("title")
		company, _ := ticker.Attr("title")

		rec := types.CompanyRecord{
			Title:       clean(news.Text()),
			Link:        link,
			CompanyName: clean(company),
			CompanyLink: CompanyPageURL(link),
			Ticker:      clean(ticker.Find("span.txt-s1").Text()),
			Source:      clean(source),
			Category:    section,
		}
		date, err := ParseListingDate(clean(when.Text()), m.now())
		if err != nil {
			m.log.Debug("listing date", "link", link, "error", err)
		}
		rec.Date = date
		out = append(out, rec)
	})
	return out
}

// ParseListingDate converts a MarketScreener listing time into YYYY-MM-DD.
// Clock times such as "09:15am" mean today; "Jun. 04" means that day of
// now's year. Anything else goes through a free-form parser.
func ParseListingDate(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ExtractionError{Field: "date", Err: ErrNotFound}
	}
	if strings.Contains(s, ":") {
		if _, err := time.Parse("3:04PM", strings.ToUpper(s)); err == nil {
			return now.Format(types.DateLayout), nil
		}
	}
	if t, err := time.Parse("Jan 2", strings.ReplaceAll(s, ".", "")); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()).Format(types.DateLayout), nil
	}
	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil {
		return "", &ExtractionError{Field: "date", Err: err}
	}
	return t.Format(types.DateLayout), nil
}
