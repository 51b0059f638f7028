package export

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Export outcomes recorded by Metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeDenied   = "denied"
	OutcomeBadToken = "bad_token"
	OutcomeError    = "error"
)

// Metrics contains Prometheus metrics for user exports.
type Metrics struct {
	attempts      *prometheus.CounterVec
	rowsExported  prometheus.Counter
	artifactBytes prometheus.Histogram
	duration      prometheus.Histogram
}

// NewMetrics registers the export collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userexport_attempts_total",
				Help: "Total number of export attempts by outcome",
			},
			[]string{"outcome"},
		),
		rowsExported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "userexport_rows_total",
				Help: "Total number of user rows written to CSV",
			},
		),
		artifactBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "userexport_artifact_bytes",
				Help:    "Size of generated CSV files",
				Buckets: prometheus.ExponentialBuckets(256, 4, 10),
			},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "userexport_duration_seconds",
				Help:    "Time spent generating and sending an export",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordOutcome counts an attempt that ended without a file.
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

// RecordExport counts a delivered export.
func (m *Metrics) RecordExport(rows int, size int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(OutcomeSuccess).Inc()
	m.rowsExported.Add(float64(rows))
	m.artifactBytes.Observe(float64(size))
	m.duration.Observe(elapsed.Seconds())
}
