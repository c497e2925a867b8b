// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides caching for hot read paths such as the category
// tree and the site settings row.
package cache

import (
	"context"
	"time"

	"github.com/matajihat/matajihat/internal/config"
)

// Cacher defines the interface for cache implementations.
// All implementations must be thread-safe. Values are []byte so the same
// interface fits both in-memory and Redis backends.
type Cacher interface {
	// Get retrieves a value. Returns ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the specified TTL. A zero TTL uses the default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// Stats holds cache hit counters.
type Stats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// StatsProvider is an optional interface for caches that track statistics.
type StatsProvider interface {
	Stats() Stats
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// New builds a cache from the application configuration: Redis when a URL is
// configured, an in-process cache otherwise.
func New(cfg *config.Config) (Cacher, error) {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if cfg.UseRedisCache() {
		return NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: ttl,
		})
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      ttl,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}), nil
}
