package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RequestsTotal counts successful Gamma/CLOB API requests.
	RequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_markets_requests_total",
			Help: "Total successful Polymarket API requests",
		},
	)

	// RequestFailuresTotal counts Polymarket API requests that failed
	// after retries.
	RequestFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_markets_request_failures_total",
			Help: "Total failed Polymarket API requests",
		},
	)

	// RequestDuration tracks Polymarket API request latency.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyforecast_markets_request_duration_seconds",
			Help:    "Polymarket API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CacheHitsTotal counts market lookups served from cache.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_markets_cache_hits_total",
			Help: "Total market lookups served from cache",
		},
	)

	// CacheMissesTotal counts market lookups that went to the API.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_markets_cache_misses_total",
			Help: "Total market lookups that missed the cache",
		},
	)
)
