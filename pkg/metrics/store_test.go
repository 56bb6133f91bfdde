package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStoreMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStoreMetrics(reg)
	metrics.ObserveCheckout(OutcomeSuccess, 250*time.Millisecond)
	metrics.ObserveCheckout(OutcomeRejected, time.Millisecond)
	metrics.IncStatusChange("shipped")
	metrics.IncPayment(OutcomeFailure)
	metrics.IncEmail("confirmation", false)
	metrics.IncDiscountRedeemed()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
	}{
		{"checkout_orders_total", "outcome", OutcomeSuccess},
		{"checkout_orders_total", "outcome", OutcomeRejected},
		{"order_status_changes_total", "status", "shipped"},
		{"payment_confirmations_total", "outcome", OutcomeFailure},
		{"notification_emails_total", "outcome", OutcomeFailure},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != 1 {
			t.Fatalf("expected %s{%s=%s}=1, got %f", c.name, c.label, c.value, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "checkout_duration_seconds", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	redeemed := findMetricFamily(mfs, "discount_redemptions_total")
	if redeemed == nil || redeemed.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one discount redemption")
	}
}

func TestStoreMetricsNilSafe(t *testing.T) {
	var metrics *StoreMetrics
	metrics.ObserveCheckout(OutcomeSuccess, time.Second)
	metrics.IncEmail("status", true)

	unregistered := NewStoreMetrics(nil)
	unregistered.IncPayment(OutcomeSuccess)
	unregistered.IncDiscountRedeemed()
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewStoreMetrics(reg).IncPayment(OutcomeSuccess)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "payment_confirmations_total") {
		t.Fatalf("expected payment counter in body")
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
