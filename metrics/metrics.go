// Package metrics holds the Prometheus instruments of the contact pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes as seen by the delivery endpoint.
const (
	OutcomeDelivered    = "delivered"
	OutcomeInvalid      = "invalid"
	OutcomeBlocked      = "blocked"
	OutcomeSendFailed   = "send_failed"
	OutcomeInternalFail = "internal_error"
)

// ContactMetrics exposes counters and histograms for the contact endpoints.
// A nil *ContactMetrics is valid and records nothing.
type ContactMetrics struct {
	submissions *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	sendLatency *prometheus.HistogramVec
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lawyer_site",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lawyer_site",
			Subsystem: "contact",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter",
		}, []string{"path"}),
		sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lawyer_site",
			Subsystem: "contact",
			Name:      "email_send_seconds",
			Help:      "Latency of email provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.rateLimited, m.sendLatency)
	return m
}

func (m *ContactMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *ContactMetrics) ObserveRateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(path).Inc()
}

func (m *ContactMetrics) ObserveSend(provider string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.sendLatency.WithLabelValues(provider, status).Observe(seconds)
}
