// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
)

func TestQueryIDCache_TTL(t *testing.T) {
	clock := newClock()
	store := NewStore(NewMemoryBackend(), WithClock(clock.Now), WithLogger(logging.Discard()))
	c := NewQueryIDCache(store, 0)
	ctx := context.Background()

	_, ok := c.Lookup(ctx, "Acme Corp")
	assert.False(t, ok)

	require.NoError(t, c.Save(ctx, "Acme Corp", "q-1"))

	clock.Advance(29 * 24 * time.Hour)
	id, ok := c.Lookup(ctx, "Acme Corp")
	assert.True(t, ok)
	assert.Equal(t, "q-1", id)

	clock.Advance(2 * 24 * time.Hour)
	_, ok = c.Lookup(ctx, "Acme Corp")
	assert.False(t, ok, "31 days is past the default TTL")
}

func TestQueryIDCache_PayloadFormat(t *testing.T) {
	clock := newClock()
	store := NewStore(NewMemoryBackend(), WithClock(clock.Now))
	c := NewQueryIDCache(store, 0)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, "Jane Doe", "q-9"))

	e, ok := store.Get(ctx, "query:Jane Doe")
	require.True(t, ok)

	var rec HistoryRecord
	require.NoError(t, json.Unmarshal(e.Payload, &rec))
	assert.Equal(t, "q-9", rec.QueryID)
	assert.Equal(t, "2024-06-01 12:00:00", rec.Timestamp)
}

func TestQueryIDCache_UnreadablePayloadIsMiss(t *testing.T) {
	store := NewStore(NewMemoryBackend(), WithLogger(logging.Discard()))
	c := NewQueryIDCache(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "query:Bad", []byte(`{"query_id": 12}`)))
	_, ok := c.Lookup(ctx, "Bad")
	assert.False(t, ok)
}

func TestQueryIDCache_ImportHistory(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)}
	store := NewStore(NewMemoryBackend(), WithClock(clock.Now), WithLogger(logging.Discard()))
	c := NewQueryIDCache(store, 0)
	ctx := context.Background()

	history := `{
  "Acme Corp": {"query_id": "q-1", "timestamp": "2024-06-01 09:15:00"},
  "Old Co": {"query_id": "q-2", "timestamp": "2024-01-01 09:15:00"},
  "Broken": {"query_id": "q-3", "timestamp": "yesterday"}
}`
	path := filepath.Join(t.TempDir(), "search_history.json")
	require.NoError(t, os.WriteFile(path, []byte(history), 0o644))

	n, err := c.ImportHistory(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	id, ok := c.Lookup(ctx, QueryKey("Acme Corp"))
	assert.True(t, ok)
	assert.Equal(t, "q-1", id)

	_, ok = c.Lookup(ctx, "Acme Corp")
	assert.False(t, ok, "records are keyed by the normalized name")

	_, ok = c.Lookup(ctx, QueryKey("Old Co"))
	assert.False(t, ok, "imported timestamps are kept, so old records are stale")

	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "elon musk", QueryKey("  Elon   MUSK "))
	assert.Equal(t, QueryKey("ＡＣＭＥ"), QueryKey("acme"))
	assert.Equal(t, QueryKey("马云"), "马云")
	assert.Equal(t, QueryKey("acme corp"), QueryKey(QueryKey("Acme Corp")))
}
