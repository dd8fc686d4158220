package pricefeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ActiveConnections tracks active WebSocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyforecast_pricefeed_active_connections",
		Help: "Number of active price feed WebSocket connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyforecast_pricefeed_reconnect_attempts_total",
		Help: "Total number of price feed reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyforecast_pricefeed_reconnect_failures_total",
		Help: "Total number of price feed reconnection failures",
	})

	// MessagesReceivedTotal tracks price messages received by event type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_pricefeed_messages_received_total",
			Help: "Total number of price feed messages received",
		},
		[]string{"event_type"},
	)

	// MessagesDroppedTotal tracks messages dropped due to a full channel.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_pricefeed_messages_dropped_total",
			Help: "Total number of price feed messages dropped due to channel full",
		},
		[]string{"reason"},
	)

	// SubscriptionCount tracks active token subscriptions.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyforecast_pricefeed_subscription_count",
		Help: "Number of active token subscriptions",
	})

	// ConnectionDuration tracks WebSocket connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyforecast_pricefeed_connection_duration_seconds",
		Help:    "Duration of price feed connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})
)
