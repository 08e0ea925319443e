package follow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts follow graph transitions.
type Metrics struct {
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_follow_transitions_total",
			Help: "Follow edge transitions by action and resulting status",
		}, []string{"action", "status"}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridges_follow_conflicts_total",
			Help: "Follow requests rejected because an edge already existed",
		}),
	}
}

func (m *Metrics) IncrementTransition(action string, status Status) {
	m.transitions.WithLabelValues(action, string(status)).Inc()
}

func (m *Metrics) IncrementConflicts() {
	m.conflicts.Inc()
}
