package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"composer-server/internal/cache"
	"composer-server/internal/config"
	"composer-server/internal/types"
)

// Global cache instances
var (
	metadataCache   *MetadataCacheWrapper
	videoTitleCache *VideoTitleCacheWrapper
	gifSearchCache  *GifSearchCacheWrapper
	userSearchCache *UserSearchCacheWrapper

	// Session and composer state stores
	sessionStore SessionStore
	stateStore   StateStore

	// Cache backend (memory or redis)
	cacheBackend CacheBackend

	// Cache configuration
	cacheConfig CacheConfig

	// Cache backend type for health reporting
	cacheBackendType string // "redis" or "memory"
)

// InitCaches initializes all caches with Redis if the config carries a Redis
// URL, otherwise memory.
func InitCaches(cfg config.Config) error {
	cacheConfig = DefaultCacheConfig()

	if cfg.RedisURL != "" {
		slog.Info("initializing Redis cache")
		redisCache, err := NewRedisCache(cfg.RedisURL, "composer:")
		if err != nil {
			slog.Warn("Redis connection failed, using memory cache", "error", err)
			initMemoryCaches()
		} else {
			cacheBackend = redisCache
			cacheBackendType = "redis"

			redisClient := redisCache.GetClient()
			sessionStore = NewRedisSessionStore(redisClient, "composer:", cacheConfig.SessionTTL)
			stateStore = NewRedisStateStore(redisClient, "composer:", cacheConfig.StateTTL)

			slog.Info("Redis cache initialized")
		}
	} else {
		initMemoryCaches()
	}

	// Initialize typed wrappers
	metadataCache = &MetadataCacheWrapper{backend: cacheBackend, config: cacheConfig}
	videoTitleCache = &VideoTitleCacheWrapper{backend: cacheBackend, config: cacheConfig}
	gifSearchCache = &GifSearchCacheWrapper{backend: cacheBackend, config: cacheConfig}
	userSearchCache = &UserSearchCacheWrapper{backend: cacheBackend, config: cacheConfig}

	return nil
}

func initMemoryCaches() {
	slog.Info("initializing in-memory cache")

	cacheBackend = cache.NewMemoryCache(10000, 2*time.Minute)
	cacheBackendType = "memory"
	sessionStore = NewMemorySessionStore(cacheConfig.SessionTTL)
	stateStore = NewMemoryStateStore(cacheConfig.StateTTL)
}

// MetadataCacheWrapper provides typed access to scraped page metadata
type MetadataCacheWrapper struct {
	backend CacheBackend
	config  CacheConfig
}

// Get retrieves cached metadata for a URL.
// Returns (meta, notFound, inCache) - inCache true with notFound true means
// the page was scraped and yielded nothing usable.
func (c *MetadataCacheWrapper) Get(url string) (*types.LinkMetadata, bool, bool) {
	var cached CachedMetadata
	if !cacheGet(c.backend, "meta:"+url, &cached) {
		return nil, false, false
	}
	return cached.Meta, cached.NotFound, true
}

// Set stores scraped metadata for a URL
func (c *MetadataCacheWrapper) Set(url string, meta *types.LinkMetadata) {
	cacheSet(c.backend, "meta:"+url, CachedMetadata{
		Meta:      meta,
		FetchedAt: time.Now().Unix(),
	}, c.config.MetadataTTL)
}

// SetNotFound records an empty scrape with the shorter fail TTL
func (c *MetadataCacheWrapper) SetNotFound(url string) {
	cacheSet(c.backend, "meta:"+url, CachedMetadata{
		FetchedAt: time.Now().Unix(),
		NotFound:  true,
	}, c.config.MetadataFailTTL)
}

// VideoTitleCacheWrapper provides typed access to YouTube title lookups
type VideoTitleCacheWrapper struct {
	backend CacheBackend
	config  CacheConfig
}

// Get retrieves a cached title lookup for a video id.
// Returns (title, notFound, inCache).
func (c *VideoTitleCacheWrapper) Get(videoID string) (string, bool, bool) {
	var cached CachedVideoTitle
	if !cacheGet(c.backend, "video:"+videoID, &cached) {
		return "", false, false
	}
	return cached.Title, cached.NotFound, true
}

// Set stores a title lookup result for a video id
func (c *VideoTitleCacheWrapper) Set(videoID, title string) {
	cacheSet(c.backend, "video:"+videoID, CachedVideoTitle{
		Title:     title,
		FetchedAt: time.Now().Unix(),
		NotFound:  title == "",
	}, c.config.VideoTitleTTL)
}

// GifSearchCacheWrapper provides typed access to Giphy search pages
type GifSearchCacheWrapper struct {
	backend CacheBackend
	config  CacheConfig
}

func (c *GifSearchCacheWrapper) Get(query string) ([]types.GifResult, bool) {
	var cached CachedGifSearch
	if !cacheGet(c.backend, "gifs:"+query, &cached) {
		return nil, false
	}
	return cached.Results, true
}

func (c *GifSearchCacheWrapper) Set(query string, results []types.GifResult) {
	cacheSet(c.backend, "gifs:"+query, CachedGifSearch{
		Results:   results,
		FetchedAt: time.Now().Unix(),
	}, c.config.GifSearchTTL)
}

// UserSearchCacheWrapper provides typed access to mention lookups
type UserSearchCacheWrapper struct {
	backend CacheBackend
	config  CacheConfig
}

func (c *UserSearchCacheWrapper) Get(term string) ([]types.UserMatch, bool) {
	var cached CachedUserSearch
	if !cacheGet(c.backend, "users:"+term, &cached) {
		return nil, false
	}
	return cached.Matches, true
}

func (c *UserSearchCacheWrapper) Set(term string, matches []types.UserMatch) {
	cacheSet(c.backend, "users:"+term, CachedUserSearch{
		Matches:   matches,
		FetchedAt: time.Now().Unix(),
	}, c.config.UserSearchTTL)
}

// cacheGet unmarshals a JSON cache entry into out, reporting whether a
// usable entry existed. Backend errors count as misses.
func cacheGet(backend CacheBackend, key string, out interface{}) bool {
	data, found, err := backend.Get(context.Background(), key)
	if err != nil {
		slog.Debug("cache get failed", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Debug("cache entry corrupt, dropping", "key", key, "error", err)
		backend.Delete(context.Background(), key)
		return false
	}
	return true
}

// cacheSet marshals v to JSON and stores it. Failures are logged and
// swallowed; a cache write must never fail a request.
func cacheSet(backend CacheBackend, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := backend.Set(context.Background(), key, data, ttl); err != nil {
		slog.Debug("cache set failed", "key", key, "error", err)
	}
}
