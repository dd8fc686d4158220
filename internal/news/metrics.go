package news

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ProviderRequestsTotal counts search calls per provider.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_news_provider_requests_total",
			Help: "Total news provider search requests",
		},
		[]string{"provider"},
	)

	// ProviderFailuresTotal counts failed search calls per provider.
	ProviderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_news_provider_failures_total",
			Help: "Total failed news provider search requests",
		},
		[]string{"provider"},
	)

	// ProviderSearchDuration tracks per-provider search latency.
	ProviderSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polyforecast_news_provider_search_duration_seconds",
			Help:    "News provider search duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// ArticlesReturned tracks the merged article count per aggregation.
	ArticlesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyforecast_news_articles_returned",
			Help:    "Articles returned per aggregation after dedup and ranking",
			Buckets: []float64{0, 1, 2, 5, 10, 15, 20, 30},
		},
	)
)
