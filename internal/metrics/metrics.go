package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvocationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chutney_invocations_enqueued_total",
		Help: "Total number of action invocations placed on the worker queue.",
	})

	InvocationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chutney_invocations_dropped_total",
		Help: "Total number of action invocations rejected due to a full queue.",
	})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chutney_actions_executed_total",
		Help: "Total number of actions run, labelled by type and outcome (success, failure, invalid, error).",
	}, []string{"action_type", "status"})

	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chutney_action_duration_ms",
		Help:    "Action execution latency in milliseconds.",
		Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 15000, 30000},
	}, []string{"action_type"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chutney_queue_utilization_ratio",
		Help: "Current invocation queue utilization (0 to 1).",
	})

	HistoryAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chutney_history_appended_total",
		Help: "Total number of execution records appended, labelled by status.",
	}, []string{"status"})

	EnvironmentsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chutney_environments_saved_total",
		Help: "Total number of environment definitions persisted, labelled by operation.",
	}, []string{"operation"})
)
