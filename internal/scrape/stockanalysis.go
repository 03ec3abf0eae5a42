// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// StockAnalysisURL is the site root.
var StockAnalysisURL = "https://stockanalysis.com"

// StockAnalysis scrapes the IPO news list and each ticker's company page.
type StockAnalysis struct {
	f   *Fetcher
	log *slog.Logger
}

// NewStockAnalysis returns the stockanalysis source.
func NewStockAnalysis(f *Fetcher, log *slog.Logger) *StockAnalysis {
	return &StockAnalysis{f: f, log: log}
}

func (s *StockAnalysis) Name() string { return "stockanalysis" }

// CompanyURL returns the company page for the last ticker in a
// comma-separated ticker list.
func CompanyURL(tickers string) string {
	parts := strings.Split(tickers, ",")
	t := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if t == "" {
		return ""
	}
	return fmt.Sprintf("%s/stocks/%s/company/", StockAnalysisURL, t)
}

// Scrape reads the news list, then fills executives, description and the
// Country/Industry/Sector cells from each ticker's company page.
func (s *StockAnalysis) Scrape(ctx context.Context) ([]types.CompanyRecord, error) {
	listURL := StockAnalysisURL + "/ipos/news/"
	doc, err := s.f.Document(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", s.Name(), err)
	}

	var records []types.CompanyRecord
	doc.Find(`div[class*="grid-cols-news"]`).Each(func(_ int, item *goquery.Selection) {
		rec := types.CompanyRecord{
			Title:    clean(item.Find("h3").First().Text()),
			Category: "IPO",
		}
		if rec.Title == "" {
			return
		}
		if a := item.Find("h3 a, a").First(); a.Length() > 0 {
			href, _ := a.Attr("href")
			rec.Link = resolveURL(listURL, strings.TrimSpace(href))
		}
		if when := item.Find("div.text-faded[title]").First(); when.Length() > 0 {
			rec.Source = clean(when.Text())
			stamp, _ := when.Attr("title")
			if t, err := dateparse.ParseAny(stamp); err == nil {
				rec.Date = t.Format(types.DateLayout)
			} else {
				s.log.Debug("news time", "value", stamp, "error", err)
			}
		}
		rec.Description = clean(item.Find("p").First().Text())

		var tickers []string
		item.Find("a.ticker").Each(func(_ int, a *goquery.Selection) {
			tickers = append(tickers, clean(a.Text()))
		})
		rec.Ticker = strings.Join(tickers, ", ")
		if img, ok := item.Find("img.rounded").First().Attr("src"); ok {
			rec.Image = img
		}
		records = append(records, rec)
	})

	for i := range records {
		if records[i].Ticker == "" {
			continue
		}
		records[i].CompanyLink = CompanyURL(records[i].Ticker)
		page, err := s.f.CompanyPage(ctx, records[i].CompanyLink)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Debug("company page unavailable", "ticker", records[i].Ticker, "error", err)
			continue
		}
		fillFromPage(&records[i], page)
	}
	s.log.Info("scraped", "source", s.Name(), "records", len(records))
	return records, nil
}

func fillFromPage(rec *types.CompanyRecord, page CompanyPage) {
	if page.Description != "" {
		rec.Description = page.Description
	}
	rec.Executives = page.People()
	rec.Country = page.Country
	rec.Industry = page.Industry
	rec.Sector = page.Sector
}
