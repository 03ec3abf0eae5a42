// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textmodel

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector size of the hashed embedder.
const DefaultDimensions = 256

// Hashed embeds text as an L2-normalized bag of hashed character
// trigrams. Similar spellings land close together, which is enough to
// pick the closest of a few country names.
type Hashed struct {
	dims int
}

// NewHashed returns an embedder producing dims-sized vectors.
func NewHashed(dims int) *Hashed {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Hashed{dims: dims}
}

func (h *Hashed) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dims)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			f := fnv.New32a()
			f.Write([]byte(string(padded[i : i+3])))
			vec[f.Sum32()%uint32(h.dims)]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}
