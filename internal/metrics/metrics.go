// Package metrics exposes harvest and resolution counters in Prometheus
// format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sonicsignal/sonicsignal/internal/source"
)

// Metrics holds the collectors on a private registry so tests can stand
// up independent instances.
type Metrics struct {
	registry *prometheus.Registry

	ObservationsTotal *prometheus.CounterVec
	MalformedTotal    prometheus.Counter
	MergesTotal       prometheus.Counter
	ReviewQueuedTotal prometheus.Counter
	EventsStored      prometheus.Gauge
	HarvestDuration   prometheus.Histogram
	SourceErrors      *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ObservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonicsignal",
			Name:      "observations_total",
			Help:      "Raw observations fetched, by source.",
		}, []string{"source"}),
		MalformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonicsignal",
			Name:      "observations_malformed_total",
			Help:      "Observations rejected as malformed during resolution.",
		}),
		MergesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonicsignal",
			Name:      "merges_total",
			Help:      "Observations merged into an existing cluster.",
		}),
		ReviewQueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonicsignal",
			Name:      "review_queued_total",
			Help:      "Near-miss pairs queued for manual review.",
		}),
		EventsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sonicsignal",
			Name:      "events_stored",
			Help:      "Canonical events currently stored.",
		}),
		HarvestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sonicsignal",
			Name:      "harvest_duration_seconds",
			Help:      "Wall time of a full harvest cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonicsignal",
			Name:      "source_errors_total",
			Help:      "Fetch failures, by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.ObservationsTotal,
		m.MalformedTotal,
		m.MergesTotal,
		m.ReviewQueuedTotal,
		m.EventsStored,
		m.HarvestDuration,
		m.SourceErrors,
	)

	// Prime the per-source series so every source shows up at zero from
	// the first scrape, before any harvest has run.
	for _, name := range source.AllNames() {
		m.ObservationsTotal.WithLabelValues(string(name))
		m.SourceErrors.WithLabelValues(string(name))
	}
	return m
}

// Handler serves the collectors over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
