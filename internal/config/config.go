package config

import (
	"log/slog"
	"os"
	"strconv"

	"composer-server/internal/util"
)

// Config carries every knob the composer needs, passed in explicitly at
// construction instead of read from ambient globals. API keys missing from
// the environment disable the corresponding feature rather than failing.
type Config struct {
	Port string

	// Upstream activity API (submission, user search, feed pages)
	UpstreamURL string

	// External service credentials
	GiphyAPIKey   string
	YouTubeAPIKey string

	// Composer limits
	MaxPostLength int

	// Redis cache backend; empty means in-memory
	RedisURL string

	// CSRF secret; empty means a random per-process secret
	CSRFSecret string
}

// FromEnv builds a Config from the process environment.
func FromEnv() Config {
	cfg := Config{
		Port:          os.Getenv("PORT"),
		UpstreamURL:   os.Getenv("UPSTREAM_API_URL"),
		GiphyAPIKey:   os.Getenv("GIPHY_API_KEY"),
		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),
		MaxPostLength: util.DefaultMaxPostLength,
		RedisURL:      os.Getenv("REDIS_URL"),
		CSRFSecret:    os.Getenv("CSRF_SECRET"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if raw := os.Getenv("MAX_POST_LENGTH"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < util.MinPostLength {
			slog.Warn("ignoring invalid MAX_POST_LENGTH", "value", raw)
		} else {
			cfg.MaxPostLength = n
		}
	}

	return cfg
}
