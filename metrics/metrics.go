package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for travel document verification.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Document acquisition (OCR + barcode) latency by outcome
	OCRLatency *prometheus.HistogramVec

	// Decision outcomes by status
	DecisionOutcome *prometheus.CounterVec

	// Individual rule outcomes
	CheckOutcome *prometheus.CounterVec

	// Located MRZ blocks by format and checksum validity
	MrzBlocks *prometheus.CounterVec

	// Overall evaluation latency
	EvaluateLatency prometheus.Histogram
}

// New creates a new Metrics instance registered with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OCRLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "traveldoc_ocr_duration_seconds",
			Help:    "Duration of per-document text acquisition by outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}), // outcome: "ok", "empty", "timeout", "error"

		DecisionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "traveldoc_decisions_total",
			Help: "Total eligibility decisions by status",
		}, []string{"status"}),

		CheckOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "traveldoc_checks_total",
			Help: "Total validation check outcomes by check id and status",
		}, []string{"id", "status"}),

		MrzBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "traveldoc_mrz_blocks_total",
			Help: "Machine readable zones located by format and checksum validity",
		}, []string{"format", "checksum"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "traveldoc_evaluate_duration_seconds",
			Help:    "Duration of full evaluation including document acquisition",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveOCRLatency records how long acquiring one document took.
func (m *Metrics) ObserveOCRLatency(outcome string, d time.Duration) {
	if m != nil {
		m.OCRLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementDecision records a decision outcome.
func (m *Metrics) IncrementDecision(status string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementCheck records one validation check outcome.
func (m *Metrics) IncrementCheck(id, status string) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(id, status).Inc()
	}
}

// IncrementMrzBlock records a located MRZ.
func (m *Metrics) IncrementMrzBlock(format string, valid bool) {
	if m == nil {
		return
	}
	checksum := "invalid"
	if valid {
		checksum = "valid"
	}
	m.MrzBlocks.WithLabelValues(format, checksum).Inc()
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
