// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists query identifiers and scraped datasets between runs.
//
// A Store is a keyed, timestamped record store over a pluggable Backend
// (memory, JSON file, SQLite, or Redis). Freshness is decided by the caller
// through IsFresh with a per-use TTL. Snapshots are dated dataset files that
// are reused until a caller forces a rescrape.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
)

// Entry is one cached record.
type Entry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Backend stores entries. Implementations must be safe for concurrent use
// within one process.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Store wraps a Backend with a clock and miss-on-error semantics.
type Store struct {
	backend Backend
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now. Tests use it to age entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for corrupt-entry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore returns a Store over b.
func NewStore(b Backend, opts ...Option) *Store {
	s := &Store{backend: b, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log = logging.OrDefault(s.log)
	return s
}

// Get returns the entry for key. A backend failure or unreadable entry is
// reported as a miss.
func (s *Store) Get(ctx context.Context, key string) (Entry, bool) {
	e, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache entry unreadable, treating as miss", "key", key, "error", err)
		return Entry{}, false
	}
	return e, ok
}

// Put stores payload under key, stamped with the current time.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	return s.PutAt(ctx, key, payload, s.now())
}

// PutAt stores payload under key with an explicit creation time.
func (s *Store) PutAt(ctx context.Context, key string, payload []byte, at time.Time) error {
	if err := s.backend.Put(ctx, Entry{Key: key, Payload: payload, CreatedAt: at}); err != nil {
		return fmt.Errorf("caching %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Keys lists stored keys.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.backend.Keys(ctx)
}

// IsFresh reports whether e is younger than ttl. A non-positive ttl means
// entries never go stale.
func (s *Store) IsFresh(e Entry, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return s.now().Sub(e.CreatedAt) < ttl
}

// GetFresh returns the entry for key only when it exists and is fresh.
func (s *Store) GetFresh(ctx context.Context, key string, ttl time.Duration) (Entry, bool) {
	e, ok := s.Get(ctx, key)
	if !ok || !s.IsFresh(e, ttl) {
		return Entry{}, false
	}
	return e, true
}

// Prune deletes every entry older than ttl and returns how many were removed.
func (s *Store) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing cache keys: %w", err)
	}
	removed := 0
	for _, k := range keys {
		e, ok := s.Get(ctx, k)
		if ok && s.IsFresh(e, ttl) {
			continue
		}
		if err := s.backend.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", k, err)
		}
		removed++
	}
	return removed, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
