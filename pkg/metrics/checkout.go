package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts order creation outcomes.
type CheckoutMetrics struct {
	created  prometheus.Counter
	rejected *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created from carts.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Checkouts rejected, by error code.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.created, m.rejected)
	return m
}

func (m *CheckoutMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func (m *CheckoutMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
