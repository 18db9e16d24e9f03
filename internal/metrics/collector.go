package bnmetrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "gitbuildnumber"
	subsystem = "resolve"
)

// Label names for resolve metrics.
const (
	labelOutcome = "outcome"
	labelReason  = "reason"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Resolve Metrics
// -------------------------------------------------------------------------

// Collector holds the build metadata Prometheus metrics. It implements
// buildnumber.MetricsReporter.
//
// In a healthy multi-module build the resolutions counter shows exactly one
// "extracted" and any number of "cached"; anything under "degraded" means a
// module published UNKNOWN_* placeholders.
type Collector struct {
	// Resolutions counts Resolve calls by outcome (extracted, cached, degraded).
	Resolutions *prometheus.CounterVec

	// Degradations counts fallbacks to the unknown placeholders by reason
	// (extraction, formatting, cache_consistency, unexpected).
	Degradations *prometheus.CounterVec

	// ExtractionSeconds observes the latency of successful extractions,
	// formatting included.
	ExtractionSeconds prometheus.Histogram
}

// NewCollector creates a Collector with all metrics registered against the
// provided prometheus.Registerer. If reg is nil, prometheus.DefaultRegisterer
// is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Resolutions,
		c.Degradations,
		c.ExtractionSeconds,
	)

	return c
}

// newMetrics creates all Prometheus metrics without registering them.
func newMetrics() *Collector {
	return &Collector{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "total",
			Help:      "Total build metadata resolutions by outcome.",
		}, []string{labelOutcome}),

		Degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "degraded_total",
			Help:      "Total resolutions that fell back to unknown placeholders, by reason.",
		}, []string{labelReason}),

		ExtractionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "extraction_seconds",
			Help:      "Duration of successful repository extractions.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
}

// RecordResolve increments the resolutions counter for outcome.
func (c *Collector) RecordResolve(outcome string) {
	c.Resolutions.WithLabelValues(outcome).Inc()
}

// RecordDegraded increments the degradations counter for reason.
func (c *Collector) RecordDegraded(reason string) {
	c.Degradations.WithLabelValues(reason).Inc()
}

// ObserveExtraction records one extraction latency.
func (c *Collector) ObserveExtraction(d time.Duration) {
	c.ExtractionSeconds.Observe(d.Seconds())
}

// -------------------------------------------------------------------------
// Textfile Output
// -------------------------------------------------------------------------

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format, for pickup by the node_exporter textfile collector. The file is
// replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
