package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// BreakerState is 1 while a provider's breaker is open, 0 when closed.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "polyforecast_breaker_open",
			Help: "Circuit breaker state per news provider (1 = open)",
		},
		[]string{"provider"},
	)

	// BreakerTripsTotal counts open transitions per provider.
	BreakerTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_breaker_trips_total",
			Help: "Total number of circuit breaker open transitions",
		},
		[]string{"provider"},
	)
)
