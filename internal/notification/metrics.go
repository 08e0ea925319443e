package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts notification writes by type.
type Metrics struct {
	recorded *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_notifications_recorded_total",
			Help: "Notifications accepted by the sink",
		}, []string{"type"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_notifications_failed_total",
			Help: "Notifications dropped because the sink failed",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncrementRecorded(t Type) {
	m.recorded.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) IncrementFailures(t Type) {
	m.failures.WithLabelValues(string(t)).Inc()
}
