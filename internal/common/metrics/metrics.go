// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OverrideSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_override_saves_total",
			Help: "Total number of override save attempts by criterion and outcome",
		},
		[]string{"criterion", "outcome"},
	)

	OverrideResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_override_resets_total",
			Help: "Total number of override reset attempts by criterion and outcome",
		},
		[]string{"criterion", "outcome"},
	)

	EditSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_edit_sessions_active",
			Help: "Number of currently open edit sessions",
		},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "review_backend_request_duration_seconds",
			Help: "Duration of scoring backend calls in seconds",
		},
		[]string{"operation"},
	)

	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_reconcile_runs_total",
			Help: "Total number of reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)

	ReconcileRegionsUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_reconcile_regions_updated_total",
			Help: "Total number of presentation regions rewritten by reconciliation",
		},
	)

	ScoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of scoring API requests by route and status",
		},
		[]string{"route", "status"},
	)
)
