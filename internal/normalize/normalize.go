// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw provider articles into NewsArticle records:
// it parses dates, applies the query's since bound, fills missing summaries,
// scores sentiment, and recovers articles hidden behind bot-challenge pages.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/internal/textmodel"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// DefaultBotSentinel is the title some publishers serve instead of the article.
const DefaultBotSentinel = "Bloomberg - Are you a robot?"

// MalformedDateError reports a publication date that could not be parsed.
type MalformedDateError struct {
	Value string
	Err   error
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed publication date %q", e.Value)
}

func (e *MalformedDateError) Unwrap() error { return e.Err }

// Page is an article re-fetched from its link.
type Page struct {
	Title string
	Text  string
}

// PageFetcher re-fetches article pages with a browser identity.
type PageFetcher interface {
	FetchArticle(ctx context.Context, link string) (Page, error)
	FetchImage(ctx context.Context, link string) (string, error)
}

// Options configures a Normalizer.
type Options struct {
	// Sentinels are titles that mark a bot-challenge page. Empty uses DefaultBotSentinel.
	Sentinels []string

	// FetchImages looks up a lead image for every article.
	FetchImages bool
}

// Normalizer turns raw articles into NewsArticle records. It is safe for
// concurrent use when its models and page fetcher are.
type Normalizer struct {
	models    textmodel.Models
	pages     PageFetcher
	sentinels map[string]bool
	images    bool
	log       *slog.Logger
}

// New returns a Normalizer. pages may be nil, which disables bot-challenge
// recovery and image lookup.
func New(models textmodel.Models, pages PageFetcher, opts Options, log *slog.Logger) *Normalizer {
	sentinels := opts.Sentinels
	if len(sentinels) == 0 {
		sentinels = []string{DefaultBotSentinel}
	}
	set := make(map[string]bool, len(sentinels))
	for _, s := range sentinels {
		set[s] = true
	}
	return &Normalizer{
		models:    models,
		pages:     pages,
		sentinels: set,
		images:    opts.FetchImages && pages != nil,
		log:       logging.OrDefault(log),
	}
}

// ParseDate parses a YYYY-MM-DD date. Empty input yields nil without error;
// malformed input yields nil and a *MalformedDateError.
func ParseDate(s string) (*types.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return nil, &MalformedDateError{Value: s, Err: err}
	}
	return &types.Date{Time: t}, nil
}

// After reports whether d is strictly later than the calendar day of since.
// A nil since admits everything; an undated article is always admitted.
func After(d *types.Date, since *time.Time) bool {
	if since == nil || d == nil {
		return true
	}
	return d.After(types.NewDate(*since).Time)
}

// Normalize converts raw into a NewsArticle for query q. The boolean is
// false when the article falls on or before q.Since and was dropped.
func (n *Normalizer) Normalize(ctx context.Context, raw types.RawArticle, q types.SearchQuery) (types.NewsArticle, bool, error) {
	date, err := ParseDate(raw.Published)
	if err != nil {
		n.log.Warn("dropping publication date", "link", raw.URL, "error", err)
	}
	if !After(date, q.Since) {
		return types.NewsArticle{}, false, nil
	}

	lang := q.Language.ResultLanguage()
	title, content := raw.Title, raw.Text
	summary := ""
	if raw.Summary != nil {
		summary = strings.TrimSpace(*raw.Summary)
	}

	if n.sentinels[strings.TrimSpace(title)] && n.pages != nil {
		page, err := n.pages.FetchArticle(ctx, raw.URL)
		if err != nil {
			n.log.Warn("bot challenge rescrape failed, keeping provider fields", "link", raw.URL, "error", err)
		} else {
			n.log.Debug("recovered article behind bot challenge", "link", raw.URL)
			title, content = page.Title, page.Text
			summary = ""
		}
	}

	if summary == "" {
		summary, err = n.models.Summarizer.Summarize(ctx, content, lang)
		if err != nil {
			return types.NewsArticle{}, false, fmt.Errorf("summarizing %s: %w", raw.URL, err)
		}
	}

	sentiment, err := n.models.Sentiment.Score(ctx, content)
	if err != nil {
		return types.NewsArticle{}, false, fmt.Errorf("scoring %s: %w", raw.URL, err)
	}

	article := types.NewsArticle{
		PublicationDate: date,
		Title:           title,
		Link:            raw.URL,
		Content:         content,
		Summary:         summary,
		Source:          raw.Source,
		Sentiment:       sentiment,
		Keywords:        []string{},
		Categories:      []string{},
	}

	if n.images && raw.URL != "" {
		img, err := n.pages.FetchImage(ctx, raw.URL)
		if err != nil {
			n.log.Debug("no image", "link", raw.URL, "error", err)
		}
		article.Image = img
	}

	return article, true, nil
}

// NormalizeResponse normalizes every article in the result bucket matching
// q's language and merges articles sharing a title, setting Count. Articles
// that fail normalization are logged and skipped; the second result counts
// articles dropped by the since bound.
func (n *Normalizer) NormalizeResponse(ctx context.Context, resp *types.SearchResponse, q types.SearchQuery) ([]types.NewsArticle, int) {
	if resp == nil {
		return nil, 0
	}
	var (
		out     []types.NewsArticle
		dropped int
	)
	for _, group := range resp.Results(q.Language.ResultLanguage()) {
		for _, env := range group.Articles {
			if env.Article == nil {
				continue
			}
			a, keep, err := n.Normalize(ctx, *env.Article, q)
			if err != nil {
				n.log.Warn("skipping article", "link", env.Article.URL, "error", err)
				continue
			}
			if !keep {
				dropped++
				continue
			}
			out = append(out, a)
		}
	}
	return Deduplicate(out), dropped
}
