package forecast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// AnalysesTotal counts started market analyses.
	AnalysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_forecast_analyses_total",
			Help: "Total market analyses started",
		},
	)

	// AnalysisFailuresTotal counts analyses that failed before producing
	// a result.
	AnalysisFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_forecast_analysis_failures_total",
			Help: "Total market analyses that failed",
		},
	)

	// ExtractionMissesTotal counts outcomes the extractor could not
	// parse a probability for.
	ExtractionMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_forecast_extraction_misses_total",
			Help: "Total outcomes missing from model probability blocks",
		},
	)

	// ExtractionBadSumsTotal counts extractions whose probabilities sum
	// far from 1.0 and are carried into the decision layer as-is.
	ExtractionBadSumsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_forecast_extraction_bad_sums_total",
			Help: "Total extractions with probability sums outside (0.9, 1.1)",
		},
	)

	// AnalysisDuration tracks end-to-end analysis latency.
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "polyforecast_forecast_analysis_duration_seconds",
			Help:    "End-to-end market analysis duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
)
