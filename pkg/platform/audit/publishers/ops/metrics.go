package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for pipeline progress events. A nil
// *Metrics records nothing.
type Metrics struct {
	Tracked             prometheus.Counter
	Dropped             *prometheus.CounterVec
	PersistFailures     prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

// NewMetrics registers the ops audit metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Tracked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hub_audit_ops_tracked_total",
			Help: "Total number of pipeline progress events persisted",
		}),
		Dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hub_audit_ops_dropped_total",
			Help: "Pipeline progress events not persisted, by cause",
		}, []string{"cause"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hub_audit_ops_persist_failures_total",
			Help: "Total number of pipeline progress events that failed to persist",
		}),
		CircuitBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hub_audit_ops_circuit_breaker_state",
			Help: "Audit store circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncTracked() {
	if m == nil {
		return
	}
	m.Tracked.Inc()
}

func (m *Metrics) IncDropped(cause string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(cause).Inc()
}

func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) SetCircuitBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
