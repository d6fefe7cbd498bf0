// Package metrics provides Prometheus-based recording of UI state transitions and
// the operations that drive them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements uistate.Recorder using Prometheus metrics.
type Recorder struct {
	actionsTotal      *prometheus.CounterVec
	staleTotal        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewRecorder registers the collectors on reg. A nil reg uses the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiered_sto_ui_actions_total",
				Help: "Total number of actions dispatched to the UI state store by type",
			},
			[]string{"type"},
		),
		staleTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiered_sto_ui_stale_actions_total",
				Help: "Terminal actions dropped because a newer operation had started",
			},
			[]string{"type"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tiered_sto_operation_duration_seconds",
				Help:    "Duration of wrapped operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}
}

// ObserveAction counts a dispatched action.
func (r *Recorder) ObserveAction(actionType string) {
	r.actionsTotal.WithLabelValues(actionType).Inc()
}

// ObserveStale counts a terminal action that arrived after a newer start.
func (r *Recorder) ObserveStale(actionType string) {
	r.staleTotal.WithLabelValues(actionType).Inc()
}

// ObserveOperation records how long a wrapped operation took.
func (r *Recorder) ObserveOperation(message string, elapsed time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	r.operationDuration.WithLabelValues(message, status).Observe(elapsed.Seconds())
}
