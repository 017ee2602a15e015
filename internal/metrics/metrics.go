// Package metrics provides Prometheus metrics for ContentForge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationsTotal tracks generation runs by generator and outcome
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentforge",
			Subsystem: "generation",
			Name:      "runs_total",
			Help:      "Total number of generation runs by generator and status",
		},
		[]string{"generator", "status"},
	)

	// GenerationDuration tracks how long generation takes
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "contentforge",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of generation runs in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"generator"},
	)

	// VariantsScored tracks captions passed through the scorer
	VariantsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "contentforge",
			Subsystem: "scoring",
			Name:      "variants_total",
			Help:      "Total number of scored captions",
		},
	)

	// PlannerActions tracks planner mutations by action and outcome
	PlannerActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentforge",
			Subsystem: "planner",
			Name:      "actions_total",
			Help:      "Total number of planner actions by action and status",
		},
		[]string{"action", "status"},
	)

	// QuotaRejections tracks requests refused by a tier limit
	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentforge",
			Subsystem: "session",
			Name:      "quota_rejections_total",
			Help:      "Total number of operations rejected by a daily quota",
		},
		[]string{"plan", "limit"},
	)

	// HTTPRequestsTotal tracks API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentforge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatusOf maps an error to a status label
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
