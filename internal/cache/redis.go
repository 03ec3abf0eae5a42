// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces Argus keys in a shared Redis.
const DefaultRedisPrefix = "argus:cache:"

type redisRecord struct {
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisBackend stores entries as JSON strings in Redis. Expiry is left to
// the Store's TTL check so stale entries remain inspectable.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to addr and verifies the connection.
func NewRedisBackend(ctx context.Context, addr string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedisBackendFromClient(client, DefaultRedisPrefix), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(k string) string { return r.prefix + k }

func (r *RedisBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var rec redisRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return Entry{}, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return Entry{Key: key, Payload: rec.Payload, CreatedAt: rec.CreatedAt}, true, nil
}

func (r *RedisBackend) Put(ctx context.Context, e Entry) error {
	data, err := json.Marshal(redisRecord{Payload: e.Payload, CreatedAt: e.CreatedAt})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", e.Key, err)
	}
	if err := r.client.Set(ctx, r.key(e.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", e.Key, err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
