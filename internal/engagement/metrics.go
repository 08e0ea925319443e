package engagement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts likes and comments by outcome.
type Metrics struct {
	likes    *prometheus.CounterVec
	comments *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		likes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_likes_total",
			Help: "Like state changes by action",
		}, []string{"action"}),
		comments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridges_comments_total",
			Help: "Comment state changes by action",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncrementLikes(action string) {
	m.likes.WithLabelValues(action).Inc()
}

func (m *Metrics) AddComments(action string, n int) {
	m.comments.WithLabelValues(action).Add(float64(n))
}
