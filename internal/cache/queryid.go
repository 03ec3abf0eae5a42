// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// HistoryTimeLayout is the timestamp format of search history records.
const HistoryTimeLayout = "2006-01-02 15:04:05"

// DefaultQueryTTL is how long a provider query identifier is reused.
const DefaultQueryTTL = 30 * 24 * time.Hour

const queryKeyPrefix = "query:"

// QueryKey normalizes an entity name for the query cache: NFKC,
// case-folded, with whitespace runs collapsed. Resolution and history
// import both key by it.
func QueryKey(name string) string {
	s := norm.NFKC.String(name)
	s = strings.Join(strings.Fields(s), " ")
	// Casers carry state; one per call keeps QueryKey safe for concurrent workers.
	return cases.Fold().String(s)
}

// HistoryRecord is the cached payload for one entity.
type HistoryRecord struct {
	QueryID   string `json:"query_id"`
	Timestamp string `json:"timestamp"`
}

// QueryIDCache maps normalized entity names to provider query identifiers.
type QueryIDCache struct {
	store *Store
	ttl   time.Duration
}

// NewQueryIDCache returns a cache over store. A zero ttl uses DefaultQueryTTL.
func NewQueryIDCache(store *Store, ttl time.Duration) *QueryIDCache {
	if ttl == 0 {
		ttl = DefaultQueryTTL
	}
	return &QueryIDCache{store: store, ttl: ttl}
}

// Lookup returns a fresh identifier for entity.
func (c *QueryIDCache) Lookup(ctx context.Context, entity string) (string, bool) {
	e, ok := c.store.GetFresh(ctx, queryKeyPrefix+entity, c.ttl)
	if !ok {
		return "", false
	}
	var rec HistoryRecord
	if err := json.Unmarshal(e.Payload, &rec); err != nil || rec.QueryID == "" {
		c.store.log.Warn("cached query id unreadable, treating as miss", "entity", entity, "error", err)
		return "", false
	}
	return rec.QueryID, true
}

// Save records id for entity with the current time.
func (c *QueryIDCache) Save(ctx context.Context, entity, id string) error {
	return c.saveAt(ctx, entity, id, c.store.now())
}

func (c *QueryIDCache) saveAt(ctx context.Context, entity, id string, at time.Time) error {
	payload, err := json.Marshal(HistoryRecord{QueryID: id, Timestamp: at.Format(HistoryTimeLayout)})
	if err != nil {
		return err
	}
	return c.store.PutAt(ctx, queryKeyPrefix+entity, payload, at)
}

// Prune removes stale identifiers.
func (c *QueryIDCache) Prune(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, queryKeyPrefix) {
			continue
		}
		if _, ok := c.store.GetFresh(ctx, k, c.ttl); ok {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ImportHistory loads a search history file (a JSON object mapping entity
// name to {query_id, timestamp}) into the cache under QueryKey of each
// name, keeping each record's original timestamp. Records with unparseable
// timestamps are skipped.
func (c *QueryIDCache) ImportHistory(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading search history: %w", err)
	}
	var history map[string]HistoryRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return 0, fmt.Errorf("parsing search history %s: %w", path, err)
	}

	imported := 0
	for entity, rec := range history {
		at, err := time.ParseInLocation(HistoryTimeLayout, rec.Timestamp, time.Local)
		if err != nil || rec.QueryID == "" {
			c.store.log.Warn("skipping history record", "entity", entity, "timestamp", rec.Timestamp)
			continue
		}
		if err := c.saveAt(ctx, QueryKey(entity), rec.QueryID, at); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
