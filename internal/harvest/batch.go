// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
	"github.com/NotAlvin/Argus-Pub/internal/normalize"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

const (
	batchInfix = "_articles_batch_"

	// FallbackOutputName is used when the joined entity names make an
	// unusable file name.
	FallbackOutputName = "last_searched_articles_combined.json"

	maxOutputName = 200
)

// BatchFileName returns the file name for batch n (1-based) of entity.
func BatchFileName(entity string, n int) string {
	return fmt.Sprintf("%s%s%d.json", safeName(entity), batchInfix, n)
}

// WriteBatches merges articles by title, summing counts, and writes them to dir in files of
// size articles each. Every file is replaced atomically. It returns the
// paths written.
func WriteBatches(dir, entity string, articles []types.NewsArticle, size int) ([]string, error) {
	if size <= 0 {
		size = defaultBatchSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	unique := normalize.Merge(articles)
	var paths []string
	for i := 0; i < len(unique); i += size {
		batch := unique[i:min(i+size, len(unique))]
		path := filepath.Join(dir, BatchFileName(entity, i/size+1))
		if err := writeArticles(path, batch); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadBatches reloads the batch files of every entity in q, in batch
// order. Entities without batches are absent from the map.
func ReadBatches(dir string, q types.SearchQuery) (map[string][]types.NewsArticle, error) {
	out := map[string][]types.NewsArticle{}
	for _, ent := range q.Entities() {
		files, err := batchFiles(dir, ent.Name)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			articles, err := ReadArticles(f)
			if err != nil {
				return nil, err
			}
			out[ent.Name] = append(out[ent.Name], articles...)
		}
	}
	return out, nil
}

// batchFiles returns entity's batch files sorted by batch number.
func batchFiles(dir, entity string) ([]string, error) {
	prefix := safeName(entity) + batchInfix
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(prefix)+"*.json"))
	if err != nil {
		return nil, err
	}

	type numbered struct {
		path string
		n    int
	}
	var files []numbered
	for _, m := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".json")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		files = append(files, numbered{m, n})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// OutputName returns the combined output file name for q: the entity
// names joined by "_", or FallbackOutputName when that is too long.
func OutputName(q types.SearchQuery) string {
	var names []string
	for _, e := range q.Entities() {
		names = append(names, safeName(e.Name))
	}
	name := strings.Join(names, "_") + "_articles_combined.json"
	if len(names) == 0 || len(name) > maxOutputName {
		return FallbackOutputName
	}
	return name
}

// WriteOutput merges articles by title, summing occurrence counts (an
// unset count is one), and writes them to path as a JSON array.
func WriteOutput(path string, articles []types.NewsArticle) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return writeArticles(path, normalize.Merge(articles))
}

// ReadArticles reads a JSON array of articles.
func ReadArticles(path string) ([]types.NewsArticle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []types.NewsArticle
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

func writeArticles(path string, articles []types.NewsArticle) error {
	if articles == nil {
		articles = []types.NewsArticle{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(articles); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := cache.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// safeName makes an entity name usable as a file name component.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '-'
		}
		return r
	}, strings.TrimSpace(s))
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

// LatestOutput returns the most recently written combined output file in
// dir. The second result is false when there is none.
func LatestOutput(dir string) (string, bool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_articles_combined.json"))
	if err != nil {
		return "", false, err
	}
	var (
		best    string
		bestMod time.Time
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = m, info.ModTime()
		}
	}
	return best, best != "", nil
}
