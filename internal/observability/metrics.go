package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_digest"

// Metrics holds the Prometheus counters, histograms, and gauges for a digest run.
type Metrics struct {
	RunsTotal   *prometheus.CounterVec // labels: outcome={success,failure}
	RunDuration prometheus.Histogram

	// Upstream API metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	AlertsCollected *prometheus.CounterVec // labels: source
	AlertMode       *prometheus.CounterVec // labels: mode={none,verbatim,summarized,fallback}

	// Output metrics.
	FeedBytes          prometheus.Gauge
	SinkErrors         *prometheus.CounterVec // labels: sink
	LastSuccessSeconds prometheus.Gauge
}

// NewMetrics creates and registers all digest metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.AlertsCollected,
		m.AlertMode,
		m.FeedBytes,
		m.SinkErrors,
		m.LastSuccessSeconds,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Digest runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		AlertsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_collected_total",
			Help:      "Alerts collected per source.",
		}, []string{"source"}),
		AlertMode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_section_total",
			Help:      "How the alert section of the digest was rendered.",
		}, []string{"mode"}),
		FeedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_bytes",
			Help:      "Size of the last written feed file.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failures of optional output sinks.",
		}, []string{"sink"}),
		LastSuccessSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}
