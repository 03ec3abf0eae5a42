// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/NotAlvin/Argus-Pub/internal/normalize"
)

// mediaParagraphs matches the body paragraphs on publisher pages that put
// bot challenges in front of their articles.
const mediaParagraphs = `p[class^="media"]`

// FetchArticle re-fetches link and returns its title and body text. Body
// paragraphs come from publisher markup when present, otherwise from a
// readability pass over the whole page.
func (f *Fetcher) FetchArticle(ctx context.Context, link string) (normalize.Page, error) {
	body, err := f.Get(ctx, link)
	if err != nil {
		return normalize.Page{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return normalize.Page{}, fmt.Errorf("parsing %s: %w", link, err)
	}

	page := normalize.Page{
		Title: clean(doc.Find("title").First().Text()),
		Text:  joinText(doc.Find(mediaParagraphs), "\n"),
	}
	if page.Text == "" {
		title, text, err := readable(body, link)
		if err != nil {
			return normalize.Page{}, &ExtractionError{URL: link, Field: "text", Err: err}
		}
		page.Text = text
		if page.Title == "" {
			page.Title = title
		}
	}
	if page.Text == "" {
		return normalize.Page{}, &ExtractionError{URL: link, Field: "text", Err: ErrNotFound}
	}
	return page, nil
}

// FetchImage returns the lead image of link: og:image when declared,
// otherwise the first img on the page. Relative URLs are resolved.
func (f *Fetcher) FetchImage(ctx context.Context, link string) (string, error) {
	doc, err := f.Document(ctx, link)
	if err != nil {
		return "", err
	}
	return leadImage(doc, link)
}

// ArticleText fetches link and joins the text of every element matching
// selector with newlines, falling back to readability when nothing matches.
func (f *Fetcher) ArticleText(ctx context.Context, link, selector string) (string, error) {
	body, err := f.Get(ctx, link)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", link, err)
	}
	if text := joinText(doc.Find(selector), "\n"); text != "" {
		return text, nil
	}
	_, text, err := readable(body, link)
	if err != nil {
		return "", &ExtractionError{URL: link, Field: "article text", Err: err}
	}
	if text == "" {
		return "", &ExtractionError{URL: link, Field: "article text", Err: ErrNotFound}
	}
	return text, nil
}

func leadImage(doc *goquery.Document, link string) (string, error) {
	src, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !ok || strings.TrimSpace(src) == "" {
		src, ok = doc.Find("img[src]").First().Attr("src")
	}
	src = strings.TrimSpace(src)
	if !ok || src == "" {
		return "", &ExtractionError{URL: link, Field: "image", Err: ErrNotFound}
	}
	return resolveURL(link, src), nil
}

func readable(body []byte, link string) (title, text string, err error) {
	pageURL, _ := url.Parse(link)
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", "", err
	}
	return clean(article.Title), strings.TrimSpace(article.TextContent), nil
}

// joinText returns the cleaned text of each selected node, skipping empty
// ones, joined by sep.
func joinText(sel *goquery.Selection, sep string) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := clean(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, sep)
}

// resolveURL resolves ref against base. Unparseable input is returned as is.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
