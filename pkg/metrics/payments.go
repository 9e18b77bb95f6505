package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records escrow payment lifecycle transitions.
type PaymentMetrics struct {
	transitions *prometheus.CounterVec
	amounts     *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment lifecycle metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions",
		Help: "Escrow payment status transitions by from/to status.",
	}, []string{"from", "to"})
	amounts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_amount_usd",
		Help:    "Escrow payment amounts observed at creation.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"status"})
	reg.MustRegister(transitions, amounts)
	return &PaymentMetrics{
		transitions: transitions,
		amounts:     amounts,
	}
}

// IncTransition increments the counter for a status transition.
func (p *PaymentMetrics) IncTransition(from, to string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveAmount records a payment amount under the given status.
func (p *PaymentMetrics) ObserveAmount(status string, amount float64) {
	if p == nil || p.amounts == nil {
		return
	}
	p.amounts.WithLabelValues(normalizeLabel(status)).Observe(amount)
}
