package ultracache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests tracks cached calls by outcome
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ultracache_requests_total",
			Help: "Total number of cached calls by result",
		},
		[]string{"result"}, // "hit", "miss", "not_modified", "error"
	)

	// CallDuration tracks how long wrapped functions run on a miss
	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ultracache_call_duration_seconds",
			Help:    "Duration of wrapped function calls on cache miss",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function"},
	)

	// OffloadActive tracks blocking functions currently running on the pool
	OffloadActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ultracache_offload_active",
			Help: "Number of blocking functions currently running on the offload pool",
		},
	)

	// OffloadRejected tracks callers that gave up waiting for a worker
	OffloadRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ultracache_offload_rejected_total",
			Help: "Total number of calls whose context ended while waiting for a worker",
		},
	)

	// Coalesced tracks misses that shared another caller's in-flight result
	Coalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ultracache_coalesced_total",
			Help: "Total number of misses served by a concurrent in-flight call",
		},
	)
)

const (
	resultHit         = "hit"
	resultMiss        = "miss"
	resultNotModified = "not_modified"
	resultError       = "error"
)
