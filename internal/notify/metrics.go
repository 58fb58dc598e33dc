package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts notification outcomes.
type Metrics struct {
	notifications *prometheus.CounterVec
	sendDuration  *prometheus.HistogramVec
}

// NewMetrics registers the notifier collectors with reg. A nil reg leaves
// them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadmail_notifications_total",
				Help: "Notification attempts by recipient role and outcome",
			},
			[]string{"role", "status"},
		),
		sendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadmail_notification_send_duration_seconds",
				Help:    "Time spent in the mail transport per send",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport"},
		),
	}
}

func (m *Metrics) record(role Role, status Status) {
	m.notifications.WithLabelValues(string(role), string(status)).Inc()
}

func (m *Metrics) observe(transport string, d time.Duration) {
	m.sendDuration.WithLabelValues(transport).Observe(d.Seconds())
}
