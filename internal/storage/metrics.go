package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ForecastsSavedTotal counts persisted forecasts (one per analysis,
	// not per outcome).
	ForecastsSavedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_storage_forecasts_saved_total",
			Help: "Total forecasts persisted",
		},
	)

	// PredictionsResolvedTotal counts prediction rows marked resolved.
	PredictionsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_storage_predictions_resolved_total",
			Help: "Total prediction rows marked resolved",
		},
	)
)
