// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
)

// memRedis answers GET, SET, DEL, and SCAN from a map inside a client hook,
// so commands never reach the network.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	fail error
}

func newMemRedis() *memRedis { return &memRedis{data: map[string]string{}} }

func (m *memRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled")
	}
}

func (m *memRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.fail != nil {
			cmd.SetErr(m.fail)
			return m.fail
		}

		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := m.data[str(args[1])]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			m.data[str(args[1])] = str(args[2])
			c.SetVal("OK")
		case *redis.IntCmd:
			var n int64
			for _, k := range args[1:] {
				if _, ok := m.data[str(k)]; ok {
					delete(m.data, str(k))
					n++
				}
			}
			c.SetVal(n)
		case *redis.ScanCmd:
			prefix := strings.TrimSuffix(str(args[3]), "*")
			var page []string
			for k := range m.data {
				if strings.HasPrefix(k, prefix) {
					page = append(page, k)
				}
			}
			sort.Strings(page)
			c.SetVal(page, 0)
		default:
			err := fmt.Errorf("unsupported command %s", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

func newTestRedis(t *testing.T) (*RedisBackend, *memRedis) {
	t.Helper()
	mem := newMemRedis()
	client := redis.NewClient(&redis.Options{Addr: "redis.invalid:6379"})
	client.AddHook(mem)
	t.Cleanup(func() { client.Close() })
	return NewRedisBackendFromClient(client, DefaultRedisPrefix), mem
}

func TestRedisBackend_PutGetDeleteKeys(t *testing.T) {
	b, mem := newTestRedis(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	_, ok, err := b.Get(ctx, "missing")
	require.NoError(t, err, "redis.Nil is a miss, not an error")
	assert.False(t, ok)

	require.NoError(t, b.Put(ctx, Entry{Key: "query:b", Payload: []byte(`{"v":2}`), CreatedAt: at}))
	require.NoError(t, b.Put(ctx, Entry{Key: "query:a", Payload: []byte(`{"v":1}`), CreatedAt: at}))
	mem.data["other:app"] = "not ours"

	e, ok, err := b.Get(ctx, "query:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "query:a", e.Key)
	assert.JSONEq(t, `{"v":1}`, string(e.Payload))
	assert.True(t, at.Equal(e.CreatedAt))
	assert.Contains(t, mem.data, DefaultRedisPrefix+"query:a", "keys are namespaced")

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"query:a", "query:b"}, keys)

	require.NoError(t, b.Delete(ctx, "query:a"))
	require.NoError(t, b.Delete(ctx, "never-existed"))
	_, ok, err = b.Get(ctx, "query:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackend_ErrorsAreWrapped(t *testing.T) {
	b, mem := newTestRedis(t)
	ctx := context.Background()
	mem.fail = errors.New("LOADING dataset in memory")

	_, ok, err := b.Get(ctx, "query:a")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get query:a")

	err = b.Put(ctx, Entry{Key: "query:a", Payload: []byte(`{}`)})
	assert.ErrorContains(t, err, "redis set query:a")

	_, err = b.Keys(ctx)
	assert.ErrorContains(t, err, "redis scan")
}

func TestRedisBackend_CorruptValueIsStoreMiss(t *testing.T) {
	b, mem := newTestRedis(t)
	mem.data[DefaultRedisPrefix+"query:x"] = "not json"

	_, _, err := b.Get(context.Background(), "query:x")
	assert.ErrorContains(t, err, "decoding query:x")

	store := NewStore(b, WithLogger(logging.Discard()))
	_, ok := store.Get(context.Background(), "query:x")
	assert.False(t, ok)
}

func TestRedisBackend_WithQueryIDCache(t *testing.T) {
	b, _ := newTestRedis(t)
	clock := newClock()
	store := NewStore(b, WithClock(clock.Now), WithLogger(logging.Discard()))
	c := NewQueryIDCache(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, QueryKey("Acme Corp"), "q-1"))
	id, ok := c.Lookup(ctx, QueryKey("ACME corp"))
	require.True(t, ok)
	assert.Equal(t, "q-1", id)

	clock.Advance(2 * time.Hour)
	_, ok = c.Lookup(ctx, QueryKey("Acme Corp"))
	assert.False(t, ok)
}
