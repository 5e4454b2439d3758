// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_turns_completed_total",
			Help: "Total number of user turns completed successfully",
		},
		[]string{"transport"},
	)

	TurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_turns_failed_total",
			Help: "Total number of user turns that failed",
		},
		[]string{"transport", "error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "connector_turn_duration_seconds",
			Help: "Duration of a full user turn in seconds",
		},
		[]string{"transport"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "connector_smapi_call_duration_seconds",
			Help: "Duration of individual SMAPI calls in seconds",
		},
		[]string{"operation"},
	)

	SimulationPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "connector_simulation_polls_total",
			Help: "Total number of simulation status poll requests",
		},
	)
)
