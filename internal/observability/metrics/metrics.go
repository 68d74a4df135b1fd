package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for lead intake and delivery.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
	deliveryLatency  *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitplus",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by variant and outcome",
		}, []string{"variant", "outcome"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitplus",
			Subsystem: "leads",
			Name:      "deliveries_total",
			Help:      "Downstream delivery attempts by adapter and status",
		}, []string{"adapter", "status"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "visitplus",
			Subsystem: "leads",
			Name:      "delivery_duration_seconds",
			Help:      "Latency of downstream delivery attempts",
			Buckets:   prometheus.DefBuckets,
		}, []string{"adapter"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.deliveriesTotal, m.deliveryLatency)
	return m
}

// ObserveSubmission counts one intake request. Outcome is one of
// accepted, invalid, failed or error.
func (m *LeadMetrics) ObserveSubmission(variant, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(variant, outcome).Inc()
}

func (m *LeadMetrics) ObserveDelivery(adapter string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.deliveriesTotal.WithLabelValues(adapter, status).Inc()
	m.deliveryLatency.WithLabelValues(adapter).Observe(seconds)
}
