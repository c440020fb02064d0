// Package metrics counts board mutations with Prometheus collectors and
// exports them for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"sprintboard/internal/signal"
)

// Outcome labels a task mutation.
type Outcome string

const (
	Accepted Outcome = "accepted"
	Noop     Outcome = "noop"
	Rejected Outcome = "rejected"
)

const namespace = "sprintboard"

type Recorder struct {
	registry   *prometheus.Registry
	mutations  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	refreshes  prometheus.Counter
	reopened   prometheus.Counter
}

// NewRecorder registers the board collectors on a private registry. When
// signals is not nil its size is exported as a gauge.
func NewRecorder(signals *signal.Registry) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_mutations_total",
			Help:      "Task field mutations by field and outcome.",
		}, []string{"field", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_rejections_total",
			Help:      "Rejected task mutations by failure kind.",
		}, []string{"kind"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_refresh_total",
			Help:      "Activity window refresh sweeps.",
		}),
		reopened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_changes_total",
			Help:      "Activity windows whose state changed during a refresh.",
		}),
	}
	r.registry.MustRegister(r.mutations, r.rejections, r.refreshes, r.reopened)
	if signals != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_signals",
			Help:      "Distinct failure messages raised since start.",
		}, func() float64 { return float64(signals.Len()) }))
	}
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveMutation(field string, outcome Outcome) {
	r.mutations.WithLabelValues(field, string(outcome)).Inc()
}

// ObserveRejection counts a rejected mutation under both collectors.
func (r *Recorder) ObserveRejection(field, kind string) {
	r.mutations.WithLabelValues(field, string(Rejected)).Inc()
	r.rejections.WithLabelValues(kind).Inc()
}

func (r *Recorder) ObserveRefresh(changed int) {
	r.refreshes.Inc()
	r.reopened.Add(float64(changed))
}

// WriteTextfile writes every collector to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
