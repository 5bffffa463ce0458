// Package metrics documents the Prometheus metrics of the BGG cache and
// exposes the registry they are registered with.
// All metrics are defined in their respective packages (bgg, cache, retry,
// ratelimit, games, gamecache) via promauto to keep those packages
// self-contained.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the BGG cache.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler for Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Names lists every metric exported by the BGG cache.
var Names = []string{
	"bgg_cache_hits_total",
	"bgg_cache_misses_total",
	"bgg_cache_stale_served_total",
	"bgg_cache_entries",
	"bgg_upstream_requests_total",
	"bgg_upstream_request_duration_seconds",
	"bgg_retries_total",
	"bgg_retry_backoff_seconds",
	"bgg_retry_exhausted_total",
	"bgg_rate_limit_wait_seconds",
	"bgg_rate_limit_acquires_total",
	"bgg_mapping_degraded_total",
	"bgg_inflight_shared_total",
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - bgg_cache_hits_total{table} (Counter): Fresh reads by table (hot, detail, search)
//   - bgg_cache_misses_total{table} (Counter): Reads without a fresh entry
//   - bgg_cache_stale_served_total{table} (Counter): Expired entries served after an upstream failure
//   - bgg_cache_entries{table} (Gauge): Current entry count
//
// Upstream Metrics (pkg/bgg):
//   - bgg_upstream_requests_total{operation, status} (Counter): Requests by operation (hot, search, thing) and HTTP status
//   - bgg_upstream_request_duration_seconds{operation} (Histogram): Request duration
//
// Retry Metrics (pkg/retry):
//   - bgg_retries_total{error_class} (Counter): Retry attempts by error class
//   - bgg_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - bgg_retry_exhausted_total{error_class} (Counter): Operations that exhausted their retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - bgg_rate_limit_wait_seconds{backend} (Histogram): Time spent waiting for a slot (memory, redis)
//   - bgg_rate_limit_acquires_total{backend} (Counter): Slots handed out
//
// Mapping and Dedup Metrics (pkg/games, pkg/gamecache):
//   - bgg_mapping_degraded_total (Counter): Items replaced by the fallback record
//   - bgg_inflight_shared_total{table} (Counter): Misses served by an already running fetch
//
// Example Prometheus Queries:
//
//   # Detail cache hit rate
//   sum(rate(bgg_cache_hits_total{table="detail"}[5m])) /
//   (sum(rate(bgg_cache_hits_total{table="detail"}[5m])) + sum(rate(bgg_cache_misses_total{table="detail"}[5m])))
//
//   # Upstream degraded (stale data being served)
//   sum(rate(bgg_cache_stale_served_total[5m])) > 0
//
//   # P95 rate-limit wait
//   histogram_quantile(0.95, rate(bgg_rate_limit_wait_seconds_bucket[5m]))
