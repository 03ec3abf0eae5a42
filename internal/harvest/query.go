// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// queryRecord is the on-disk form of a query. Since is a YYYY-MM-DD string;
// an empty or malformed value means no lower bound.
type queryRecord struct {
	Names     []string `json:"names" yaml:"names"`
	Companies []string `json:"companies" yaml:"companies"`
	Language  string   `json:"language" yaml:"language"`
	Since     string   `json:"since" yaml:"since"`
}

func (r queryRecord) query() types.SearchQuery {
	q := types.SearchQuery{
		Names:     r.Names,
		Companies: r.Companies,
		Language:  types.Language(strings.ToLower(strings.TrimSpace(r.Language))),
	}
	if q.Language == "" {
		q.Language = types.LanguageEN
	}
	if t, err := time.Parse(types.DateLayout, strings.TrimSpace(r.Since)); err == nil {
		q.Since = &t
	}
	return q
}

// LoadQueries reads queries from path. Files ending in .yaml or .yml hold
// a YAML list; anything else is JSON lines, one query object per line.
func LoadQueries(path string) ([]types.SearchQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}

	var records []queryRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for line := 1; sc.Scan(); line++ {
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			var r queryRecord
			if err := json.Unmarshal([]byte(text), &r); err != nil {
				return nil, fmt.Errorf("parsing %s line %d: %w", path, line, err)
			}
			records = append(records, r)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	out := make([]types.SearchQuery, 0, len(records))
	for i, r := range records {
		q := r.query()
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("query %d in %s: %w", i+1, path, err)
		}
		out = append(out, q)
	}
	return out, nil
}
