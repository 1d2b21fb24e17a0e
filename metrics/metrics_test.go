package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestContactMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContactMetrics(reg)

	m.ObserveSubmission(OutcomeDelivered)
	m.ObserveSubmission(OutcomeDelivered)
	m.ObserveSubmission(OutcomeInvalid)
	m.ObserveRateLimited("/api/send-email")
	m.ObserveSend("resend", true, 0.2)
	m.ObserveSend("resend", false, 1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues(OutcomeDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/api/send-email")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.sendLatency))
}

func TestContactMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewContactMetrics(reg)
	assert.Panics(t, func() { NewContactMetrics(reg) })
}

func TestContactMetrics_NilSafe(t *testing.T) {
	var m *ContactMetrics
	m.ObserveSubmission(OutcomeDelivered)
	m.ObserveRateLimited("/api/send-email")
	m.ObserveSend("resend", true, 0.1)
}
