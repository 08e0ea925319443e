package counter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger outcomes per counter field.
type Metrics struct {
	applied  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the ledger metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_counter_deltas_applied_total",
			Help: "Counter deltas applied, by field",
		}, []string{"field"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_counter_delta_failures_total",
			Help: "Counter deltas that failed and were dropped, by field",
		}, []string{"field"}),
	}
}

func (m *Metrics) IncrementApplied(field Field) {
	m.applied.WithLabelValues(string(field)).Inc()
}

func (m *Metrics) IncrementFailures(field Field) {
	m.failures.WithLabelValues(string(field)).Inc()
}
