// Package metrics exposes the Prometheus metrics of the cache.
// Metrics are defined in their respective packages (ultracache, storage) via
// promauto and land in the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer the cache metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Cache Metrics (pkg/ultracache):
//   - ultracache_requests_total{result} (Counter): Cached calls by result (hit, miss, not_modified, error)
//   - ultracache_call_duration_seconds{function} (Histogram): Wrapped function duration on miss
//   - ultracache_offload_active (Gauge): Blocking functions running on the offload pool
//   - ultracache_offload_rejected_total (Counter): Calls that gave up waiting for a worker
//   - ultracache_coalesced_total (Counter): Misses served by a concurrent in-flight call
//
// Storage Metrics (pkg/storage):
//   - ultracache_storage_errors_total{backend, operation} (Counter): Failed backend operations
//   - ultracache_storage_cleared_keys_total{backend} (Counter): Keys removed by Clear
//
// Example Prometheus Queries:
//
//   # Hit Rate
//   sum(rate(ultracache_requests_total{result=~"hit|not_modified"}[5m])) /
//   sum(rate(ultracache_requests_total[5m]))
//
//   # Storage Error Rate
//   sum by (backend) (rate(ultracache_storage_errors_total[5m]))
//
//   # P95 Miss Latency
//   histogram_quantile(0.95, rate(ultracache_call_duration_seconds_bucket[5m]))
