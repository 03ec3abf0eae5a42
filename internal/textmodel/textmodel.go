// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textmodel holds the text models the pipeline treats as black
// boxes: summarization, sentiment scoring, and sentence embedding.
//
// The built-in implementations are deterministic and run offline. When an
// inference endpoint is configured, Remote forwards the same calls to it.
package textmodel

import (
	"context"
	"fmt"
	"math"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// Summarizer condenses article text. lang is "en" or "zh".
type Summarizer interface {
	Summarize(ctx context.Context, text, lang string) (string, error)
}

// SentimentScorer rates text in [-1, 1].
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Embedder maps text to a vector for similarity comparisons.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Models bundles the three models.
type Models struct {
	Summarizer Summarizer
	Sentiment  SentimentScorer
	Embedder   Embedder
}

// New returns the remote models when cfg names an endpoint and the
// built-in ones otherwise.
func New(cfg types.ModelConfig, apiKey string) Models {
	if cfg.Endpoint != "" {
		r := NewRemote(cfg.Endpoint, apiKey)
		return Models{Summarizer: r, Sentiment: r, Embedder: r}
	}
	return Local(cfg.SummarySentences)
}

// Local returns the offline models.
func Local(summarySentences int) Models {
	return Models{
		Summarizer: NewExtractive(summarySentences),
		Sentiment:  NewLexicon(),
		Embedder:   NewHashed(DefaultDimensions),
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BestMatch embeds text and each candidate and returns the candidate with
// the highest cosine similarity. Ties keep the earlier candidate.
func BestMatch(ctx context.Context, e Embedder, text string, candidates []string) (string, float64, error) {
	if len(candidates) == 0 {
		return "", 0, fmt.Errorf("no candidates")
	}
	target, err := e.Embed(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("embedding text: %w", err)
	}

	best, bestScore := candidates[0], math.Inf(-1)
	for _, c := range candidates {
		v, err := e.Embed(ctx, c)
		if err != nil {
			return "", 0, fmt.Errorf("embedding %q: %w", c, err)
		}
		if s := Cosine(target, v); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore, nil
}
