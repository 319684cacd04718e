package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tau"

// Metrics holds the scheduler collectors.
//
// A nil *Metrics is valid and records nothing, so schedulers built without
// WithMetrics pay no cost.
type Metrics struct {
	// TasksTotal counts executed scheduler tasks.
	// Labels: scheduler (realtime, historic), result (ok, error, panic)
	TasksTotal *prometheus.CounterVec

	// QueueDepth is the number of tasks waiting for the real-time worker.
	QueueDepth prometheus.Gauge

	// TimersArmed is the number of real-time timers not yet fired.
	TimersArmed prometheus.Gauge

	// HistoricEvents counts events popped by a historical run.
	// Labels: outcome (executed, pre_window, post_window, abandoned)
	HistoricEvents *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Use a fresh prometheus.NewRegistry() per process or per test.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "tasks_total",
			Help:      "Scheduled tasks executed, by scheduler and result",
		}, []string{"scheduler", "result"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Tasks waiting for the real-time worker",
		}),
		TimersArmed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "scheduler",
			Name:      "timers_armed",
			Help:      "Real-time timers armed and not yet fired",
		}),
		HistoricEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "historic",
			Name:      "events_total",
			Help:      "Events popped by historical runs, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) task(scheduler, result string) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(scheduler, result).Inc()
}

func (m *Metrics) queueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) timers(delta float64) {
	if m == nil {
		return
	}
	m.TimersArmed.Add(delta)
}

func (m *Metrics) historic(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.HistoricEvents.WithLabelValues(outcome).Add(float64(n))
}

// taskResult maps an execution error to the result label.
func taskResult(err error) string {
	if err == nil {
		return "ok"
	}
	var ae *ActionError
	if errors.As(err, &ae) && ae.Panicked() {
		return "panic"
	}
	return "error"
}
