package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline. Each instance owns
// its registry so tests can construct them freely.
type Metrics struct {
	registry *prometheus.Registry

	FragmentsProcessed *prometheus.CounterVec
	RowsStaged         *prometheus.CounterVec
	FragmentDuration   *prometheus.HistogramVec
	RunDuration        *prometheus.HistogramVec
	RetrievalBytes     prometheus.Counter
}

// New creates and registers all pipeline metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FragmentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sirene_fragments_processed_total",
			Help: "Total fragments processed by dataset and outcome",
		}, []string{"dataset", "outcome"}),
		RowsStaged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sirene_rows_staged_total",
			Help: "Total normalized rows written into staging by dataset",
		}, []string{"dataset"}),
		FragmentDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sirene_fragment_duration_seconds",
			Help:    "Duration of a single fragment normalize+derive+upsert cycle",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"dataset"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sirene_run_duration_seconds",
			Help:    "Duration of a full dataset run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"dataset", "outcome"}),
		RetrievalBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "sirene_retrieval_bytes_total",
			Help: "Bytes downloaded from the open-data endpoint",
		}),
	}
}

// Handler exposes the metrics registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return r
}
