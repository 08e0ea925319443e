package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	sent   prometheus.Counter
	typing *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sent: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridges_messages_sent_total",
			Help: "Direct messages persisted",
		}),
		typing: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_typing_indicators_total",
			Help: "Typing indicators broadcast by state",
		}, []string{"state"}),
	}
}

func (m *Metrics) IncrementSent() {
	m.sent.Inc()
}

func (m *Metrics) IncrementTyping(isTyping bool) {
	state := "stopped"
	if isTyping {
		state = "started"
	}
	m.typing.WithLabelValues(state).Inc()
}
