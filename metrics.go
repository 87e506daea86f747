package main

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// HTTP metrics
var (
	httpRequestsTotal atomic.Int64
	httpErrorsTotal   atomic.Int64
)

// Composer metrics
var (
	staleResolvesTotal      atomic.Int64
	submissionsSuccessTotal atomic.Int64
	submissionsFailureTotal atomic.Int64
)

// Cache metrics
var (
	cacheHitsTotal   atomic.Int64
	cacheMissesTotal atomic.Int64
)

// SSE connection metrics
var (
	sseConnectionsActive atomic.Int64
)

// SSE connection tracking
func IncrementSSEConnections() {
	sseConnectionsActive.Add(1)
}

func DecrementSSEConnections() {
	sseConnectionsActive.Add(-1)
}

// IncrementCacheHit increments the cache hit counter
func IncrementCacheHit() {
	cacheHitsTotal.Add(1)
}

// IncrementCacheMiss increments the cache miss counter
func IncrementCacheMiss() {
	cacheMissesTotal.Add(1)
}

// IncrementStaleResolve counts resolver results dropped because the
// composer text changed while the lookup was in flight.
func IncrementStaleResolve() {
	staleResolvesTotal.Add(1)
}

// IncrementSubmissionSuccess counts activities accepted upstream
func IncrementSubmissionSuccess() {
	submissionsSuccessTotal.Add(1)
}

// IncrementSubmissionFailure counts activities rejected or failed upstream
func IncrementSubmissionFailure() {
	submissionsFailureTotal.Add(1)
}

// metricsHandler serves Prometheus-compatible metrics
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Build info metric
	fmt.Fprintf(w, "# HELP composer_build_info Build and configuration information\n")
	fmt.Fprintf(w, "# TYPE composer_build_info gauge\n")
	fmt.Fprintf(w, "composer_build_info{cache_backend=%q,go_version=%q} 1\n\n", cacheBackendType, runtime.Version())

	// Process metrics
	fmt.Fprintf(w, "# HELP process_start_time_seconds Unix timestamp of process start\n")
	fmt.Fprintf(w, "# TYPE process_start_time_seconds gauge\n")
	fmt.Fprintf(w, "process_start_time_seconds %d\n\n", serverStartTime.Unix())

	fmt.Fprintf(w, "# HELP process_uptime_seconds Time since process started\n")
	fmt.Fprintf(w, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(w, "process_uptime_seconds %.0f\n\n", time.Since(serverStartTime).Seconds())

	// Go runtime metrics
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fmt.Fprintf(w, "# HELP go_goroutines Number of active goroutines\n")
	fmt.Fprintf(w, "# TYPE go_goroutines gauge\n")
	fmt.Fprintf(w, "go_goroutines %d\n\n", runtime.NumGoroutine())

	fmt.Fprintf(w, "# HELP go_memstats_alloc_bytes Currently allocated memory in bytes\n")
	fmt.Fprintf(w, "# TYPE go_memstats_alloc_bytes gauge\n")
	fmt.Fprintf(w, "go_memstats_alloc_bytes %d\n\n", memStats.Alloc)

	fmt.Fprintf(w, "# HELP go_memstats_sys_bytes Total memory obtained from the OS\n")
	fmt.Fprintf(w, "# TYPE go_memstats_sys_bytes gauge\n")
	fmt.Fprintf(w, "go_memstats_sys_bytes %d\n\n", memStats.Sys)

	fmt.Fprintf(w, "# HELP go_memstats_heap_inuse_bytes Heap memory in use\n")
	fmt.Fprintf(w, "# TYPE go_memstats_heap_inuse_bytes gauge\n")
	fmt.Fprintf(w, "go_memstats_heap_inuse_bytes %d\n\n", memStats.HeapInuse)

	fmt.Fprintf(w, "# HELP go_gc_duration_seconds_total Total GC pause duration\n")
	fmt.Fprintf(w, "# TYPE go_gc_duration_seconds_total counter\n")
	fmt.Fprintf(w, "go_gc_duration_seconds_total %.6f\n\n", float64(memStats.PauseTotalNs)/1e9)

	fmt.Fprintf(w, "# HELP go_gc_cycles_total Number of completed GC cycles\n")
	fmt.Fprintf(w, "# TYPE go_gc_cycles_total counter\n")
	fmt.Fprintf(w, "go_gc_cycles_total %d\n\n", memStats.NumGC)

	// HTTP metrics
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", httpRequestsTotal.Load())

	fmt.Fprintf(w, "# HELP http_errors_total Total number of HTTP 5xx errors\n")
	fmt.Fprintf(w, "# TYPE http_errors_total counter\n")
	fmt.Fprintf(w, "http_errors_total %d\n\n", httpErrorsTotal.Load())

	// SSE metrics
	fmt.Fprintf(w, "# HELP sse_connections_active Number of active SSE connections\n")
	fmt.Fprintf(w, "# TYPE sse_connections_active gauge\n")
	fmt.Fprintf(w, "sse_connections_active %d\n\n", sseConnectionsActive.Load())

	// Composer metrics
	fmt.Fprintf(w, "# HELP composer_stale_resolves_total Preview lookups discarded as stale\n")
	fmt.Fprintf(w, "# TYPE composer_stale_resolves_total counter\n")
	fmt.Fprintf(w, "composer_stale_resolves_total %d\n\n", staleResolvesTotal.Load())

	fmt.Fprintf(w, "# HELP composer_submissions_success_total Activities accepted upstream\n")
	fmt.Fprintf(w, "# TYPE composer_submissions_success_total counter\n")
	fmt.Fprintf(w, "composer_submissions_success_total %d\n\n", submissionsSuccessTotal.Load())

	fmt.Fprintf(w, "# HELP composer_submissions_failure_total Activities rejected or failed upstream\n")
	fmt.Fprintf(w, "# TYPE composer_submissions_failure_total counter\n")
	fmt.Fprintf(w, "composer_submissions_failure_total %d\n\n", submissionsFailureTotal.Load())

	// Cache metrics
	cacheHits := cacheHitsTotal.Load()
	cacheMisses := cacheMissesTotal.Load()

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n")
	fmt.Fprintf(w, "# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total %d\n\n", cacheHits)

	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n")
	fmt.Fprintf(w, "# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total %d\n\n", cacheMisses)

	// Cache hit ratio (useful for alerting)
	var hitRatio float64
	if total := cacheHits + cacheMisses; total > 0 {
		hitRatio = float64(cacheHits) / float64(total)
	}
	fmt.Fprintf(w, "# HELP cache_hit_ratio Cache hit ratio (0-1)\n")
	fmt.Fprintf(w, "# TYPE cache_hit_ratio gauge\n")
	fmt.Fprintf(w, "cache_hit_ratio %.4f\n", hitRatio)
}
