package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAccepted  = "accepted"
	resultRejected  = "rejected"
	resultMalformed = "malformed"
)

// Metrics holds the feed collectors. A nil *Metrics records nothing.
type Metrics struct {
	// MessagesTotal counts feed messages.
	// Labels: result (accepted, rejected, malformed)
	MessagesTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		MessagesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "tau",
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Feed messages received, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) message(result string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(result).Inc()
}
