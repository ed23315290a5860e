package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementDecision("approved")
	m.IncrementDecision("approved")
	m.IncrementCheck("mrz_checksum", "pass")
	m.IncrementMrzBlock("TD3", false)
	m.ObserveOCRLatency("ok", 150*time.Millisecond)
	m.ObserveEvaluateLatency(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DecisionOutcome.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckOutcome.WithLabelValues("mrz_checksum", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MrzBlocks.WithLabelValues("TD3", "invalid")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OCRLatency))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementDecision("rejected")
		m.IncrementCheck("name_match", "fail")
		m.IncrementMrzBlock("TD1", true)
		m.ObserveOCRLatency("timeout", time.Second)
		m.ObserveEvaluateLatency(time.Second)
	})
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
