// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"fmt"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// OpenBackend constructs the backend named in cfg.
func OpenBackend(ctx context.Context, cfg types.CacheConfig) (Backend, error) {
	switch cfg.Backend {
	case types.CacheMemory:
		return NewMemoryBackend(), nil
	case types.CacheFile, "":
		return NewFileBackend(cfg.Path), nil
	case types.CacheSQLite:
		return NewSQLiteBackend(cfg.Path)
	case types.CacheRedis:
		return NewRedisBackend(ctx, cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
