// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// CNBCURL is the IPO card listing.
var CNBCURL = "https://www.cnbc.com/ipos/"

const (
	cnbcArticle = "div.ArticleBody-articleBody p"
	cnbcLabel   = "CNBC News"
)

// CNBC scrapes the CNBC IPO page.
type CNBC struct {
	f   *Fetcher
	now func() time.Time
	log *slog.Logger
}

// NewCNBC returns the cnbc source.
func NewCNBC(f *Fetcher, now func() time.Time, log *slog.Logger) *CNBC {
	return &CNBC{f: f, now: now, log: log}
}

func (c *CNBC) Name() string { return "cnbc" }

// Scrape reads every complete card (title, image and time) and fetches the
// article body for each.
func (c *CNBC) Scrape(ctx context.Context) ([]types.CompanyRecord, error) {
	doc, err := c.f.Document(ctx, CNBCURL)
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", c.Name(), err)
	}

	now := c.now()
	var records []types.CompanyRecord
	doc.Find("div.Card-card").Each(func(_ int, card *goquery.Selection) {
		title := card.Find("a.Card-title").First()
		img := card.Find("img").First()
		when := card.Find("span.Card-time").First()
		if title.Length() == 0 || img.Length() == 0 || when.Length() == 0 {
			return
		}
		link, _ := title.Attr("href")
		image, _ := img.Attr("src")

		rec := types.CompanyRecord{
			Title:    clean(title.Text()),
			Link:     resolveURL(CNBCURL, strings.TrimSpace(link)),
			Image:    strings.TrimSpace(image),
			Category: "IPO",
		}
		published, label, err := CardTime(clean(when.Text()), now)
		if err != nil {
			c.log.Debug("card time", "link", rec.Link, "error", err)
			rec.Source = cnbcLabel
		} else {
			rec.Date = published.Format(types.DateLayout)
			rec.Source = label + " - " + cnbcLabel
		}
		records = append(records, rec)
	})

	for i := range records {
		text, err := c.f.ArticleText(ctx, records[i].Link, cnbcArticle)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Debug("article text unavailable", "link", records[i].Link, "error", err)
			continue
		}
		records[i].ArticleContent = text
	}
	c.log.Info("scraped", "source", c.Name(), "records", len(records))
	return records, nil
}

var (
	relativeTime = regexp.MustCompile(`^(\d+)\s+(min|mins|minute|minutes|hour|hours)\s+ago$`)
	ordinal      = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
)

// CardTime parses a card timestamp. Relative stamps ("25 min ago",
// "3 hours ago") are kept as the label; absolute dates get a
// human-readable relative label computed against now.
func CardTime(s string, now time.Time) (time.Time, string, error) {
	s = strings.TrimSpace(s)
	if m := relativeTime.FindStringSubmatch(strings.ToLower(s)); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := time.Minute
		if strings.HasPrefix(m[2], "hour") {
			unit = time.Hour
		}
		return now.Add(-time.Duration(n) * unit), s, nil
	}
	t, err := dateparse.ParseIn(ordinal.ReplaceAllString(s, "$1"), now.Location())
	if err != nil {
		return time.Time{}, "", &ExtractionError{Field: "date", Err: err}
	}
	return t, humanize.RelTime(t, now, "ago", "from now"), nil
}
