package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CommandsTotal counts handled bot commands.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyforecast_bot_commands_total",
			Help: "Total Telegram commands handled",
		},
		[]string{"command"},
	)
)
