package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"composer-server/internal/config"
	"composer-server/internal/services"
)

// Request body size limits
const (
	maxBodySize = 64 * 1024 // 64KB covers the longest post plus poll options
)

var serverStartTime = time.Now()

// limitBody wraps an HTTP handler to limit request body size
func limitBody(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// securityHeaders wraps an HTTP handler to add security headers
func securityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Content Security Policy - defense in depth against XSS
		// - img-src * data:: preview thumbnails and GIFs come from anywhere
		// - frame-src youtube.com: embedded video previews
		csp := "default-src 'self'; " +
			"img-src * data:; " +
			"media-src *; " +
			"frame-src https://www.youtube.com https://www.youtube-nocookie.com; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'"
		w.Header().Set("Content-Security-Policy", csp)

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Referrer policy - don't leak full URLs to external sites
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

func main() {
	InitLogger()

	cfg := config.FromEnv()

	if err := InitCaches(cfg); err != nil {
		slog.Error("failed to initialize caches", "error", err)
		os.Exit(1)
	}
	initCSRFSecret(cfg.CSRFSecret)

	upstream := services.NewActivityClient(cfg.UpstreamURL)
	composer = NewComposer(
		cfg,
		services.NewGiphyClient(cfg.GiphyAPIKey),
		services.NewYouTubeClient(cfg.YouTubeAPIKey),
		services.NewMetadataScraper(),
		upstream,
		stateStore,
		NewDraftStore(cacheBackend, cacheConfig.DraftTTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedWatcher = NewFeedWatcher(cfg.UpstreamURL, feedBroadcaster)
	go feedWatcher.Start(ctx)

	// SIGHUP reloads the tabs config without a restart
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := ReloadTabsConfig(); err != nil {
				slog.Error("tabs config reload failed", "error", err)
			}
		}
	}()

	mux := http.NewServeMux()

	// Session endpoints
	mux.HandleFunc("/login", securityHeaders(limitBody(loginHandler, maxBodySize)))
	mux.HandleFunc("/logout", securityHeaders(logoutHandler))

	// Composer endpoints
	mux.HandleFunc("/compose/state", securityHeaders(composeStateHandler))
	mux.HandleFunc("/compose/input", securityHeaders(limitBody(composeInputHandler, maxBodySize)))
	mux.HandleFunc("/compose/blur", securityHeaders(composeBlurHandler))
	mux.HandleFunc("/compose/draft", securityHeaders(limitBody(composeDraftHandler, maxBodySize)))
	mux.HandleFunc("/compose/mentions", securityHeaders(composeMentionsHandler))
	mux.HandleFunc("/compose/gifs", securityHeaders(composeGifSearchHandler))
	mux.HandleFunc("/compose/gif", securityHeaders(limitBody(composeGifSelectHandler, maxBodySize)))
	mux.HandleFunc("/compose/gif/clear", securityHeaders(composeGifClearHandler))
	mux.HandleFunc("/compose/poll", securityHeaders(limitBody(composePollHandler, maxBodySize)))
	mux.HandleFunc("/compose/video", securityHeaders(limitBody(composeVideoHandler, maxBodySize)))
	mux.HandleFunc("/compose/submit", securityHeaders(limitBody(composeSubmitHandler, maxBodySize)))

	// Preview scraper
	mux.HandleFunc("/service/metadata/", securityHeaders(metadataHandler))

	// Feed endpoints
	mux.HandleFunc("/feed", securityHeaders(feedHandler))
	mux.HandleFunc("/feed/stream", securityHeaders(streamFeedHandler))

	// Operational endpoints
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)

	handler := RequestLoggingMiddleware(mux)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server", "port", cfg.Port, "upstream", upstream.BaseURL())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
