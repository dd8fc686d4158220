package backtest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RunsTotal counts backtest runs.
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_backtest_runs_total",
			Help: "Total backtest runs started",
		},
	)

	// MarketFailuresTotal counts markets that failed during a backtest.
	MarketFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "polyforecast_backtest_market_failures_total",
			Help: "Total markets that failed to backtest",
		},
	)
)
