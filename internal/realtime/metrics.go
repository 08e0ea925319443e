package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks live sessions and event delivery outcomes.
type Metrics struct {
	sessions         prometheus.Gauge
	deliveries       *prometheus.CounterVec
	handshakeFailure prometheus.Counter
	evictions        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bridges_realtime_sessions",
			Help: "Number of live authenticated sessions",
		}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_realtime_deliveries_total",
			Help: "Event deliveries by event type and outcome",
		}, []string{"event", "outcome"}),
		handshakeFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridges_realtime_handshake_failures_total",
			Help: "Connections rejected during authentication",
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "bridges_realtime_evictions_total",
			Help: "Sessions disconnected because their outbound queue was full or a write failed",
		}),
	}
}

func (m *Metrics) IncrementSessions() {
	m.sessions.Inc()
}

func (m *Metrics) DecrementSessions() {
	m.sessions.Dec()
}

func (m *Metrics) AddDelivered(event string, n int) {
	m.deliveries.WithLabelValues(event, "delivered").Add(float64(n))
}

func (m *Metrics) IncrementDropped(event string) {
	m.deliveries.WithLabelValues(event, "dropped").Inc()
}

func (m *Metrics) IncrementHandshakeFailures() {
	m.handshakeFailure.Inc()
}

func (m *Metrics) IncrementEvictions() {
	m.evictions.Inc()
}
