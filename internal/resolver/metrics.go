package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SweepsTotal counts resolution sweeps.
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_resolver_sweeps_total",
			Help: "Total resolution sweeps run",
		},
	)
)
