package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the storefront counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

// StoreMetrics records checkout, payment and notification activity.
type StoreMetrics struct {
	checkoutDuration  *prometheus.HistogramVec
	checkouts         *prometheus.CounterVec
	discountsRedeemed prometheus.Counter
	statusChanges     *prometheus.CounterVec
	payments          *prometheus.CounterVec
	emails            *prometheus.CounterVec
}

// NewStoreMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	discountsRedeemed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discount_redemptions_total",
		Help: "Discount codes redeemed by completed orders.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Mock payment confirmations by outcome.",
	}, []string{"outcome"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_emails_total",
		Help: "Order emails by kind and outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(checkoutDuration, checkouts, discountsRedeemed, statusChanges, payments, emails)
	return &StoreMetrics{
		checkoutDuration:  checkoutDuration,
		checkouts:         checkouts,
		discountsRedeemed: discountsRedeemed,
		statusChanges:     statusChanges,
		payments:          payments,
		emails:            emails,
	}
}

// ObserveCheckout records one checkout attempt.
func (m *StoreMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.checkouts.WithLabelValues(outcome).Inc()
	m.checkoutDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncDiscountRedeemed counts a discount code redemption.
func (m *StoreMetrics) IncDiscountRedeemed() {
	if m == nil || m.discountsRedeemed == nil {
		return
	}
	m.discountsRedeemed.Inc()
}

// IncStatusChange counts an order moving into status.
func (m *StoreMetrics) IncStatusChange(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncPayment counts a payment confirmation attempt.
func (m *StoreMetrics) IncPayment(outcome string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncEmail counts an order email by kind and whether it was delivered.
func (m *StoreMetrics) IncEmail(kind string, sent bool) {
	if m == nil || m.emails == nil {
		return
	}
	outcome := OutcomeSuccess
	if !sent {
		outcome = OutcomeFailure
	}
	m.emails.WithLabelValues(normalizeLabel(kind), outcome).Inc()
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
