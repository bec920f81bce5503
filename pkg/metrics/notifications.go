package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics counts outbound customer notifications.
type NotificationMetrics struct {
	sent    prometheus.Counter
	failed  prometheus.Counter
	dropped prometheus.Counter
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	m := &NotificationMetrics{
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered to the bot API.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notifications that failed to send.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped because the queue was full or closed.",
		}),
	}
	reg.MustRegister(m.sent, m.failed, m.dropped)
	return m
}

func (m *NotificationMetrics) IncSent() {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.Inc()
}

func (m *NotificationMetrics) IncFailed() {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.Inc()
}

func (m *NotificationMetrics) IncDropped() {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Inc()
}
