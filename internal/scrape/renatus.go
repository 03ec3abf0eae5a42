// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// RenatusURL is the newsletter URL prefix; the issue date follows it.
var RenatusURL = "https://renatus.ie/renatus-private-equity-mampa-newsletter-"

// RenatusFirstIssue is the first weekly issue. Later issues are 7 days apart.
var RenatusFirstIssue = time.Date(2024, time.June, 16, 0, 0, 0, 0, time.UTC)

// RenatusHeadings are the newsletter sections kept.
var RenatusHeadings = []string{"M&A Activity", "Deal Updates & Other News", "Fundraisings"}

const renatusDateLayout = "02-01-2006"

// Renatus scrapes the latest weekly private-equity newsletter.
type Renatus struct {
	f   *Fetcher
	now func() time.Time
	log *slog.Logger
}

// NewRenatus returns the renatus source.
func NewRenatus(f *Fetcher, now func() time.Time, log *slog.Logger) *Renatus {
	return &Renatus{f: f, now: now, log: log}
}

func (r *Renatus) Name() string { return "renatus" }

// IssueDates lists issue dates from the first issue up to the first date
// on or after now, oldest first.
func IssueDates(first, now time.Time) []time.Time {
	dates := []time.Time{first}
	for d := first; d.Before(now); {
		d = d.AddDate(0, 0, 7)
		dates = append(dates, d)
	}
	return dates
}

// IssueURL returns the newsletter URL for an issue date.
func IssueURL(date time.Time) string {
	return RenatusURL + date.Format(renatusDateLayout) + "/"
}

// Scrape tries issues from newest to oldest and parses the first one that
// loads.
func (r *Renatus) Scrape(ctx context.Context) ([]types.CompanyRecord, error) {
	dates := IssueDates(RenatusFirstIssue, r.now())
	var lastErr error
	for i := len(dates) - 1; i >= 0; i-- {
		url := IssueURL(dates[i])
		doc, err := r.f.Document(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.Debug("issue unavailable", "url", url, "error", err)
			lastErr = err
			continue
		}
		records := ParseNewsletter(doc, url, dates[i].Format(types.DateLayout))
		r.log.Info("scraped", "source", r.Name(), "issue", dates[i].Format(types.DateLayout), "records", len(records))
		return records, nil
	}
	return nil, fmt.Errorf("scraping %s: no issue available: %w", r.Name(), lastErr)
}

type newsletterSection struct {
	heading string
	content string
	links   string
}

// ParseNewsletter walks the page's sections in order. A section whose
// heading is one of RenatusHeadings opens a group; following sections
// without a heading belong to it; the next headed section closes it. Each
// member section becomes one record.
func ParseNewsletter(doc *goquery.Document, url, date string) []types.CompanyRecord {
	keep := map[string]bool{}
	for _, h := range RenatusHeadings {
		keep[h] = true
	}

	var (
		out     []types.CompanyRecord
		current string
	)
	doc.Find("section").Each(func(_ int, sel *goquery.Selection) {
		s := parseSection(sel)
		switch {
		case keep[s.heading]:
			current = s.heading
		case s.heading != "":
			current = ""
		case current != "" && s.content != "":
			out = append(out, types.CompanyRecord{
				Title:          firstLine(s.content),
				Link:           url,
				Date:           date,
				Source:         "Renatus",
				Category:       current,
				ArticleContent: s.content,
				Description:    s.links,
			})
		}
	})
	return out
}

func parseSection(sel *goquery.Selection) newsletterSection {
	var s newsletterSection
	s.heading = clean(sel.Find("h2.elementor-heading-title").First().Text())

	var paras []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := clean(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	content := strings.Join(paras, "\n")
	n := 0
	sel.Find("ul").Each(func(_ int, ul *goquery.Selection) {
		n++
		var b strings.Builder
		fmt.Fprintf(&b, "\n\nList %d:", n)
		ul.Find("li").Each(func(_ int, li *goquery.Selection) {
			fmt.Fprintf(&b, "\n  - %s", clean(li.Text()))
		})
		content += b.String()
	})
	s.content = strings.TrimSpace(content)

	var links []string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links = append(links, fmt.Sprintf("%s (%s)", clean(a.Text()), href))
	})
	s.links = strings.Join(links, ", ")
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
