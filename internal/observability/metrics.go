// Package observability holds the Prometheus instrumentation for the
// pipeline and the serve command.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// complaint analysis pipeline.
type Metrics struct {
	ComplaintsIngested  prometheus.Counter
	ComplaintsFiltered  prometheus.Counter
	ComplaintsJoined    prometheus.Counter
	ComplaintsUnmatched prometheus.Counter
	RowsSkipped         *prometheus.CounterVec // label: reason={no_location,bad_date,bad_key,bad_location}

	TractsLoaded    prometheus.Gauge
	PipelineRunning prometheus.Gauge

	PhaseDuration *prometheus.HistogramVec // label: phase
	FetchDuration *prometheus.HistogramVec // label: source={socrata,census}
}

func newMetrics() *Metrics {
	return &Metrics{
		ComplaintsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "complaints_ingested_total",
			Help:      "Total 311 rows parsed from source exports.",
		}),
		ComplaintsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "complaints_filtered_total",
			Help:      "Complaints retained by the flood keyword filter.",
		}),
		ComplaintsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "complaints_joined_total",
			Help:      "Complaints assigned to a census tract by the spatial join.",
		}),
		ComplaintsUnmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "complaints_unmatched_total",
			Help:      "Complaints whose coordinates fell outside every tract.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "floodwatch",
			Name:      "rows_skipped_total",
			Help:      "Source rows dropped during parsing, by reason.",
		}, []string{"reason"}),
		TractsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "tracts_loaded",
			Help:      "Census tracts currently loaded in the spatial index.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "floodwatch",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active, 0 otherwise.",
		}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodwatch",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each pipeline phase.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"phase"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "floodwatch",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream dataset downloads.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ComplaintsIngested,
		m.ComplaintsFiltered,
		m.ComplaintsJoined,
		m.ComplaintsUnmatched,
		m.RowsSkipped,
		m.TractsLoaded,
		m.PipelineRunning,
		m.PhaseDuration,
		m.FetchDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
