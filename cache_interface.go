package main

import (
	"context"

	"composer-server/internal/cache"
	"composer-server/internal/types"
)

// Type aliases for internal/cache types
type CacheBackend = cache.CacheBackend
type CacheConfig = cache.CacheConfig

// DefaultCacheConfig wraps internal/cache.DefaultCacheConfig
func DefaultCacheConfig() CacheConfig {
	return cache.DefaultCacheConfig()
}

// SessionStore defines the interface for login session management
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*types.Session, error)
	Set(ctx context.Context, session *types.Session) error
	Delete(ctx context.Context, sessionID string) error
}

// StateStore holds per-session composer state. Update reads the current
// state (a zero state when none exists), applies fn under the store's
// concurrency discipline and persists the result, returning the state as
// written. Handlers for overlapping input events race through here; the
// sequence check inside ComposerState is what keeps stale resolver results
// from clobbering newer state.
type StateStore interface {
	Get(ctx context.Context, sessionID string) (*types.ComposerState, error)
	Update(ctx context.Context, sessionID string, fn func(*types.ComposerState)) (*types.ComposerState, error)
	Delete(ctx context.Context, sessionID string) error
}

// Type aliases for internal/types cache types
type CachedMetadata = types.CachedMetadata
type CachedVideoTitle = types.CachedVideoTitle
type CachedGifSearch = types.CachedGifSearch
type CachedUserSearch = types.CachedUserSearch
