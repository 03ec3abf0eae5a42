// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "github.com/NotAlvin/Argus-Pub/pkg/types"

// Deduplicate merges articles with identical titles. The first occurrence
// is kept, its Count set to the number of occurrences, and the order of
// first occurrences preserved. Counts already on the input are ignored.
func Deduplicate(articles []types.NewsArticle) []types.NewsArticle {
	index := make(map[string]int, len(articles))
	out := make([]types.NewsArticle, 0, len(articles))

	for _, a := range articles {
		if i, ok := index[a.Title]; ok {
			out[i].Count++
			continue
		}
		a.Count = 1
		index[a.Title] = len(out)
		out = append(out, a)
	}
	return out
}

// Merge combines already de-duplicated slices, summing counts for titles
// that appear in more than one.
func Merge(sets ...[]types.NewsArticle) []types.NewsArticle {
	index := map[string]int{}
	var out []types.NewsArticle
	for _, set := range sets {
		for _, a := range set {
			c := max(a.Count, 1)
			if i, ok := index[a.Title]; ok {
				out[i].Count += c
				continue
			}
			a.Count = c
			index[a.Title] = len(out)
			out = append(out, a)
		}
	}
	return out
}
