package weather

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts GetOrFetch calls answered from the store.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_cache_hits_total",
			Help: "Total number of weather lookups answered from the store",
		},
	)

	// CacheMisses counts GetOrFetch calls that went upstream.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_cache_misses_total",
			Help: "Total number of weather lookups that required an upstream fetch",
		},
	)

	// UpstreamErrors counts failed upstream fetches by kind.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_upstream_errors_total",
			Help: "Total number of failed upstream weather fetches",
		},
		[]string{"kind"}, // "transport", "schema", "not_found"
	)

	// StoreErrors counts store faults by operation.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_store_errors_total",
			Help: "Total number of weather store errors",
		},
		[]string{"operation"}, // "lookup", "store"
	)

	// UpstreamRequests counts upstream HTTP responses by status code.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_upstream_requests_total",
			Help: "Total number of upstream weather HTTP requests by status",
		},
		[]string{"status"},
	)
)
