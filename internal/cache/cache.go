// Package cache provides the distributed cache backend used by the
// aggregation engine. The backend may be unavailable at any time; callers
// are expected to treat every error as a miss and recompute.
package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrCacheMiss indicates that the key was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrDisabled indicates that no cache backend is configured.
	ErrDisabled = errors.New("cache disabled")
)

// Cache is a string-keyed byte store with per-entry TTL.
type Cache interface {
	// Get retrieves a value. Returns ErrCacheMiss if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a whole-value entry that expires after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Ping reports backend reachability.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// New returns a Redis-backed cache when redisURL is set, otherwise a
// disabled cache that misses on every read.
func New(redisURL string, log *zap.Logger) (Cache, error) {
	if redisURL == "" {
		log.Info("APP_REDIS_URL not set, summary cache disabled")
		return disabledCache{}, nil
	}
	return newRedisCache(redisURL, log)
}

type disabledCache struct{}

func (disabledCache) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrDisabled
}

func (disabledCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return ErrDisabled
}

func (disabledCache) Ping(_ context.Context) error {
	return ErrDisabled
}

func (disabledCache) Close() error {
	return nil
}
