package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RequestsTotal counts model API calls.
	RequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_llm_requests_total",
			Help: "Total model API requests",
		},
	)

	// FailuresTotal counts failed model API calls.
	FailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_llm_failures_total",
			Help: "Total failed model API requests",
		},
	)

	// RequestDuration tracks model call latency.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyforecast_llm_request_duration_seconds",
			Help:    "Model API request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// TokensUsedTotal counts input and output tokens reported by the API.
	TokensUsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_llm_tokens_used_total",
			Help: "Total tokens consumed, by direction",
		},
		[]string{"direction"},
	)
)
