package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the worker's prometheus collectors. All methods are nil-safe
// so instrumentation stays optional.
type Metrics struct {
	tasksStarted   prometheus.Counter
	tasksCompleted *prometheus.CounterVec
	activeSlots    prometheus.Gauge
	reconnects     prometheus.Counter
	signals        prometheus.Counter
}

// NewMetrics builds and registers the worker collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rivet",
			Subsystem: "worker",
			Name:      "tasks_started_total",
			Help:      "Task assignments that began executing.",
		}),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rivet",
			Subsystem: "worker",
			Name:      "tasks_completed_total",
			Help:      "Task outcomes by result.",
		}, []string{"outcome"}),
		activeSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rivet",
			Subsystem: "worker",
			Name:      "active_slots",
			Help:      "Currently executing tasks.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rivet",
			Subsystem: "worker",
			Name:      "reconnects_total",
			Help:      "Session reconnect attempts after a connection loss.",
		}),
		signals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rivet",
			Subsystem: "worker",
			Name:      "signals_received_total",
			Help:      "Signals routed to running tasks.",
		}),
	}
	reg.MustRegister(m.tasksStarted, m.tasksCompleted, m.activeSlots, m.reconnects, m.signals)
	return m
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.tasksStarted.Inc()
	m.activeSlots.Inc()
}

func (m *Metrics) taskCompleted(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.tasksCompleted.WithLabelValues(outcome).Inc()
	m.activeSlots.Dec()
}

func (m *Metrics) reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) signalReceived() {
	if m == nil {
		return
	}
	m.signals.Inc()
}
