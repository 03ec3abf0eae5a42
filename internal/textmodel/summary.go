// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textmodel

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// Extractive picks the highest-scoring sentences of a text, scored by the
// frequency of their words across the whole text, and returns them in
// their original order.
type Extractive struct {
	sentences int
}

// NewExtractive returns a summarizer keeping at most n sentences (default 3).
func NewExtractive(n int) *Extractive {
	if n <= 0 {
		n = 3
	}
	return &Extractive{sentences: n}
}

func (e *Extractive) Summarize(_ context.Context, text, lang string) (string, error) {
	sents := splitSentences(text, lang)
	if len(sents) <= e.sentences {
		return strings.TrimSpace(strings.Join(sents, joiner(lang))), nil
	}

	freq := map[string]int{}
	tokenized := make([][]string, len(sents))
	for i, s := range sents {
		tokenized[i] = tokens(s, lang)
		for _, t := range tokenized[i] {
			freq[t]++
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sents))
	for i, toks := range tokenized {
		var sum float64
		for _, t := range toks {
			sum += float64(freq[t])
		}
		if len(toks) > 0 {
			sum /= float64(len(toks))
		}
		ranked[i] = scored{idx: i, score: sum}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	keep := ranked[:e.sentences]
	sort.Slice(keep, func(a, b int) bool { return keep[a].idx < keep[b].idx })

	out := make([]string, len(keep))
	for i, k := range keep {
		out[i] = sents[k.idx]
	}
	return strings.Join(out, joiner(lang)), nil
}

func joiner(lang string) string {
	if lang == "zh" {
		return ""
	}
	return " "
}

// splitSentences breaks text at terminal punctuation. Chinese text also
// splits at full-width terminators.
func splitSentences(text, lang string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		switch r {
		case '。', '！', '？':
			flush()
		case '.', '!', '?':
			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == 0 || unicode.IsSpace(next) {
				flush()
			}
		case '\n':
			if lang != "zh" {
				flush()
			}
		}
	}
	flush()
	return out
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "for": true, "with": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "by": true, "at": true,
	"as": true, "it": true, "its": true, "that": true, "this": true, "from": true,
	"has": true, "have": true, "had": true, "said": true, "will": true,
}

// tokens returns lowercase words for English and single Han characters for
// Chinese, dropping stopwords and punctuation.
func tokens(s, lang string) []string {
	var out []string
	if lang == "zh" {
		for _, r := range s {
			if unicode.Is(unicode.Han, r) {
				out = append(out, string(r))
			}
		}
		return out
	}
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if !stopwords[w] {
			out = append(out, w)
		}
	}
	return out
}
