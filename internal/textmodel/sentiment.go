// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textmodel

import (
	"context"
	"strings"
)

// keyword is a lexicon entry. Slices keep summation order fixed so scores
// are reproducible bit for bit.
type keyword struct {
	word   string
	weight float64
}

// Positive and negative keyword weights (lowercase). Chinese terms match
// as substrings like the English ones.
var positiveWords = []keyword{
	{"bullish", 0.7}, {"rally", 0.6}, {"surge", 0.7}, {"soar", 0.7}, {"upbeat", 0.5},
	{"positive", 0.4}, {"growth", 0.4}, {"upgrade", 0.6}, {"outperform", 0.6},
	{"strong", 0.4}, {"recovery", 0.5}, {"record high", 0.7}, {"beat", 0.5},
	{"exceeds", 0.5}, {"expansion", 0.4}, {"profit", 0.3}, {"dividend", 0.4},
	{"award", 0.5}, {"partnership", 0.4}, {"acquire", 0.3}, {"raises", 0.4},
	{"上涨", 0.6}, {"增长", 0.4}, {"利润", 0.3}, {"盈利", 0.4}, {"合作", 0.4}, {"创新高", 0.7},
}

var negativeWords = []keyword{
	{"bearish", 0.7}, {"crash", 0.8}, {"plunge", 0.7}, {"slump", 0.6},
	{"negative", 0.4}, {"downgrade", 0.6}, {"underperform", 0.6},
	{"weak", 0.4}, {"decline", 0.5}, {"loss", 0.4}, {"selloff", 0.7},
	{"default", 0.7}, {"fraud", 0.8}, {"scam", 0.8}, {"investigation", 0.5},
	{"lawsuit", 0.6}, {"sanction", 0.6}, {"bankruptcy", 0.8}, {"layoff", 0.5},
	{"warning", 0.5}, {"concern", 0.3}, {"probe", 0.5}, {"charged", 0.6},
	{"下跌", 0.6}, {"亏损", 0.5}, {"欺诈", 0.8}, {"调查", 0.5}, {"破产", 0.8}, {"诉讼", 0.6},
}

// DefaultWindow is the chunk size, in runes, the lexicon scores at a time.
const DefaultWindow = 2000

// Lexicon scores text by weighted keyword matches. Long text is split
// into windows; each window's score is weighted by its length.
type Lexicon struct {
	window int
}

// NewLexicon returns a lexicon scorer with the default window.
func NewLexicon() *Lexicon {
	return &Lexicon{window: DefaultWindow}
}

func (l *Lexicon) Score(_ context.Context, text string) (float64, error) {
	runes := []rune(strings.ToLower(text))
	if len(runes) == 0 {
		return 0, nil
	}

	var weighted, total float64
	for start := 0; start < len(runes); start += l.window {
		end := min(start+l.window, len(runes))
		chunk := string(runes[start:end])
		w := float64(end - start)
		weighted += scoreChunk(chunk) * w
		total += w
	}
	return clamp(weighted / total), nil
}

func scoreChunk(s string) float64 {
	var pos, neg float64
	for _, k := range positiveWords {
		pos += k.weight * float64(strings.Count(s, k.word))
	}
	for _, k := range negativeWords {
		neg += k.weight * float64(strings.Count(s, k.word))
	}
	if pos+neg == 0 {
		return 0
	}
	return (pos - neg) / (pos + neg)
}

func clamp(v float64) float64 {
	return max(-1, min(1, v))
}
