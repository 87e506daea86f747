package cache

import "time"

// CacheConfig holds cache TTL configuration
type CacheConfig struct {
	MetadataTTL     time.Duration
	MetadataFailTTL time.Duration
	VideoTitleTTL   time.Duration
	GifSearchTTL    time.Duration
	UserSearchTTL   time.Duration
	DraftTTL        time.Duration
	SessionTTL      time.Duration
	StateTTL        time.Duration
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MetadataTTL:     24 * time.Hour,      // Page metadata rarely changes
		MetadataFailTTL: 1 * time.Hour,       // Retry failed scrapes eventually
		VideoTitleTTL:   24 * time.Hour,      // Video titles are effectively static
		GifSearchTTL:    10 * time.Minute,    // Same query repeats while the picker is open
		UserSearchTTL:   2 * time.Minute,     // Mention lookups repeat per keystroke
		DraftTTL:        30 * 24 * time.Hour, // Drafts survive navigation for a month
		SessionTTL:      24 * time.Hour,
		StateTTL:        24 * time.Hour, // Composer state lives as long as the session
	}
}
