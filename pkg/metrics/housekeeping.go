package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HousekeepingMetrics records scheduled maintenance runs.
type HousekeepingMetrics struct {
	runs          *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	ordersExpired prometheus.Counter
}

// NewHousekeepingMetrics registers the housekeeping metrics. A nil registerer
// yields a no-op recorder.
func NewHousekeepingMetrics(reg prometheus.Registerer) *HousekeepingMetrics {
	if reg == nil {
		return &HousekeepingMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_runs_total",
		Help: "Housekeeping job runs by job and outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "housekeeping_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	ordersExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unpaid_orders_expired_total",
		Help: "Pending orders cancelled after the unpaid TTL.",
	})
	reg.MustRegister(runs, duration, ordersExpired)
	return &HousekeepingMetrics{runs: runs, duration: duration, ordersExpired: ordersExpired}
}

// ObserveRun records one job run.
func (m *HousekeepingMetrics) ObserveRun(job string, err error, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	job = normalizeLabel(job)
	m.runs.WithLabelValues(job, outcome).Inc()
	m.duration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *HousekeepingMetrics) AddOrdersExpired(n int) {
	if m == nil || m.ordersExpired == nil || n <= 0 {
		return
	}
	m.ordersExpired.Add(float64(n))
}
