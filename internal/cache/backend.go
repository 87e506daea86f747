package cache

import (
	"context"
	"time"
)

// CacheBackend defines the interface for cache implementations.
// Drafts, scraped metadata, search results and composer sessions all go
// through this interface so Redis and in-memory deployments behave the same.
type CacheBackend interface {
	// Get retrieves a value from the cache
	// Returns (value, found, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache with the given TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error
}
