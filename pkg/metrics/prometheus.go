package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pricewise"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses     *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	sourceFetch  *prometheus.CounterVec
	listings     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Pricing analyses produced, by strategy and confidence",
			},
			[]string{"strategy", "confidence"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cost_plus_fallbacks_total",
				Help:      "Analyses that fell back to cost-plus pricing, by reason",
			},
			[]string{"reason"},
		),
		sourceFetch: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "competitors",
				Name:      "fetches_total",
				Help:      "Competitor source fetches, by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		listings: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "competitors",
				Name:      "listings",
				Help:      "Listings returned per fetch",
				Buckets:   []float64{0, 1, 3, 5, 10, 20, 30, 50, 100},
			},
			[]string{"source"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "competitors",
				Name:      "cache_lookups_total",
				Help:      "Competitor cache lookups, by result",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis counts a produced analysis.
func (r *Recorder) RecordAnalysis(strategy, confidence string) {
	r.analyses.WithLabelValues(strategy, confidence).Inc()
}

// RecordFallback counts a cost-plus fallback.
func (r *Recorder) RecordFallback(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

// RecordSourceFetch records one competitor source call.
func (r *Recorder) RecordSourceFetch(source, outcome string, listings int) {
	r.sourceFetch.WithLabelValues(source, outcome).Inc()
	if outcome == "ok" {
		r.listings.WithLabelValues(source).Observe(float64(listings))
	}
}

// RecordCacheLookup records a competitor cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
