package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment pipeline and the map view.
type Metrics struct {
	// Enrichment batch metrics.
	BatchesRun      *prometheus.CounterVec // labels: outcome={complete,partial,failed}
	BatchDuration   prometheus.Histogram
	ItemsEnriched   *prometheus.CounterVec // labels: outcome={enriched,unenriched}
	PipelineRunning prometheus.Gauge

	// Classification call metrics.
	ClassifyRequests *prometheus.CounterVec   // labels: model={disaster,sentiment}, outcome={success,error}
	ClassifyCache    *prometheus.CounterVec   // labels: model={disaster,sentiment}, result={hit,miss}
	ClassifyDuration *prometheus.HistogramVec // labels: model={disaster,sentiment}

	// Presentation and intake metrics.
	ViewReady         prometheus.Gauge
	NotificationsSent *prometheus.CounterVec // labels: level={info,success,warning,error}
	ReportsSubmitted  *prometheus.CounterVec // labels: outcome={accepted,rejected}
	PublishErrors     prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		BatchesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_batches_total",
			Help:      "Enrichment batches run, by outcome.",
		}, []string{"outcome"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_batch_duration_seconds",
			Help:      "Wall time of one enrichment batch, from fan-out to join.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ItemsEnriched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_items_total",
			Help:      "Text items processed, by whether a prediction was attached.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an enrichment batch is in flight, 0 otherwise.",
		}),
		ClassifyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_requests_total",
			Help:      "Classification calls by model and outcome.",
		}, []string{"model", "outcome"}),
		ClassifyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_cache_total",
			Help:      "Classification cache lookups by model and result.",
		}, []string{"model", "result"}),
		ClassifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_api_duration_seconds",
			Help:      "Inference API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"model"}),
		ViewReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "map_view_ready",
			Help:      "1 once the mounted map view has settled its enrichment batch.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "User-visible notifications raised, by level.",
		}, []string{"level"}),
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Emergency report submissions, by outcome.",
		}, []string{"outcome"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish enrichment results.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BatchesRun,
		m.BatchDuration,
		m.ItemsEnriched,
		m.PipelineRunning,
		m.ClassifyRequests,
		m.ClassifyCache,
		m.ClassifyDuration,
		m.ViewReady,
		m.NotificationsSent,
		m.ReportsSubmitted,
		m.PublishErrors,
	}
}
