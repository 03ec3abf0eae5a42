// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// fileRecord is the on-disk form of one entry. Payloads must be JSON.
type fileRecord struct {
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// FileBackend keeps every entry in a single JSON index file. Each write
// replaces the file atomically, so a crash never leaves it half-written.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend returns a backend rooted at path. The file is created on
// first write.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the index file location.
func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) Get(_ context.Context, key string) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.read()
	if err != nil {
		return Entry{}, false, err
	}
	rec, ok := idx[key]
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Key: key, Payload: []byte(rec.Payload), CreatedAt: rec.CreatedAt}, true, nil
}

func (f *FileBackend) Put(_ context.Context, e Entry) error {
	if !json.Valid(e.Payload) {
		return fmt.Errorf("file cache payload for %s is not JSON", e.Key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.read()
	if err != nil {
		// A corrupt index is discarded rather than blocking new writes.
		idx = map[string]fileRecord{}
	}
	idx[e.Key] = fileRecord{Payload: json.RawMessage(e.Payload), CreatedAt: e.CreatedAt}
	return f.write(idx)
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := idx[key]; !ok {
		return nil
	}
	delete(idx, key)
	return f.write(idx)
}

func (f *FileBackend) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx, err := f.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) read() (map[string]fileRecord, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]fileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache index: %w", err)
	}
	idx := map[string]fileRecord{}
	if len(data) == 0 {
		return idx, nil
	}
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing cache index %s: %w", f.path, err)
	}
	return idx, nil
}

func (f *FileBackend) write(idx map[string]fileRecord) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache index: %w", err)
	}
	return WriteFileAtomic(f.path, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".argus-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}
