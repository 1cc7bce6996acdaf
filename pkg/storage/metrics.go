package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationErrors tracks failed backend operations
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ultracache_storage_errors_total",
			Help: "Total number of storage backend operation errors",
		},
		[]string{"backend", "operation"}, // "redis", "get"
	)

	// ClearedKeys tracks keys removed by Clear
	ClearedKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ultracache_storage_cleared_keys_total",
			Help: "Total number of keys removed by Clear",
		},
		[]string{"backend"},
	)
)
