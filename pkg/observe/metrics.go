package observe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chriserin/ftrun/pkg/events"
)

// Metrics counts scenarios, steps and hook failures of a run.
//
// Metrics:
//   - ft_scenarios_total{status} - finished scenarios by execution status
//   - ft_steps_total{status} - finished steps by execution status
//   - ft_step_binding_duration_seconds - duration of step definition calls
//   - ft_hook_failures_total{hook} - failed hook points
type Metrics struct {
	Scenarios           *prometheus.CounterVec
	Steps               *prometheus.CounterVec
	StepBindingDuration prometheus.Histogram
	HookFailures        *prometheus.CounterVec
}

// NewMetrics registers the metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Scenarios: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ft_scenarios_total",
			Help: "Total number of finished scenarios",
		}, []string{"status"}),
		Steps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ft_steps_total",
			Help: "Total number of finished steps",
		}, []string{"status"}),
		StepBindingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ft_step_binding_duration_seconds",
			Help:    "Duration of step definition calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		HookFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ft_hook_failures_total",
			Help: "Total number of hook points that failed",
		}, []string{"hook"}),
	}
}

func (m *Metrics) OnEvent(_ context.Context, e events.Event) {
	switch ev := e.(type) {
	case events.ScenarioFinished:
		m.Scenarios.WithLabelValues(ev.Scenario.Status().String()).Inc()
	case events.StepFinished:
		m.Steps.WithLabelValues(ev.Step.Status().String()).Inc()
	case events.StepBindingFinished:
		m.StepBindingDuration.Observe(ev.Duration.Seconds())
	case events.HookFinished:
		if ev.Err != nil {
			m.HookFailures.WithLabelValues(ev.Type.String()).Inc()
		}
	}
}
