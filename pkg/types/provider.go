// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrSchemaDrift reports a provider payload that no longer matches the
// expected shape.
var ErrSchemaDrift = errors.New("provider response schema drift")

// StatusCompleted is the provider status for a finished query.
const StatusCompleted = "completed"

// SubmitRequest is the body of a search submission. Exactly the language
// fields chosen by the resolver are populated.
type SubmitRequest struct {
	EntityNameEN string     `json:"entity_name_en,omitempty"`
	EntityNameZH string     `json:"entity_name_zh,omitempty"`
	EntityType   EntityType `json:"entity_type"`
}

// SubmitResponse is the body of a 201 submission reply.
type SubmitResponse struct {
	Data *struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ID returns the query identifier or a schema error when it is absent.
func (r SubmitResponse) ID() (string, error) {
	if r.Data == nil {
		return "", fmt.Errorf("%w: missing data", ErrSchemaDrift)
	}
	if r.Data.ID == "" {
		return "", fmt.Errorf("%w: missing data.id", ErrSchemaDrift)
	}
	return r.Data.ID, nil
}

// SearchResponse is the body of a status poll.
type SearchResponse struct {
	Data *SearchData `json:"data"`
}

// SearchData carries the query status and, once completed, its results.
type SearchData struct {
	ID       string        `json:"id,omitempty"`
	Status   string        `json:"status"`
	ResultEN []ResultGroup `json:"result_en"`
	ResultZH []ResultGroup `json:"result_zh"`
}

// ResultGroup is one cluster of related articles.
type ResultGroup struct {
	Articles []ArticleEnvelope `json:"articles"`
}

// ArticleEnvelope wraps a single raw article.
type ArticleEnvelope struct {
	Article *RawArticle `json:"article"`
}

// RawArticle is an article as the provider returns it, before normalization.
type RawArticle struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Text      string  `json:"text"`
	Published string  `json:"published"`
	Source    string  `json:"source"`
	Summary   *string `json:"summary"`
}

// Completed reports whether the provider finished the query.
func (r SearchResponse) Completed() bool {
	return r.Data != nil && r.Data.Status == StatusCompleted
}

// Validate checks that a completed response carries the fields the
// normalizer reads, naming the first one that is missing.
func (r SearchResponse) Validate() error {
	if r.Data == nil {
		return fmt.Errorf("%w: missing data", ErrSchemaDrift)
	}
	if r.Data.Status == "" {
		return fmt.Errorf("%w: missing data.status", ErrSchemaDrift)
	}
	if r.Data.Status != StatusCompleted {
		return nil
	}
	for _, bucket := range []struct {
		name   string
		groups []ResultGroup
	}{{"result_en", r.Data.ResultEN}, {"result_zh", r.Data.ResultZH}} {
		for i, g := range bucket.groups {
			for j, env := range g.Articles {
				if env.Article == nil {
					return fmt.Errorf("%w: missing data.%s[%d].articles[%d].article", ErrSchemaDrift, bucket.name, i, j)
				}
			}
		}
	}
	return nil
}

// Results returns the result groups for a result language ("en" or "zh").
func (r SearchResponse) Results(lang string) []ResultGroup {
	if r.Data == nil {
		return nil
	}
	if lang == "zh" {
		return r.Data.ResultZH
	}
	return r.Data.ResultEN
}
