package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"text2phenotype.com/standoff/standoff"
)

// Sources of a graph build.
const (
	SourceWorker = "worker"
	SourceAPI    = "api"
)

const namespace = "standoff"

type Recorder struct {
	registry    *prometheus.Registry
	documents   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	annotations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Documents turned into annotation graphs.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_failed_total",
			Help:      "Documents that failed to load, by error class.",
		}, []string{"source", "error_class"}),
		annotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_total",
			Help:      "Annotations registered in loaded graphs.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building one annotation graph.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"source"}),
	}
	r.registry.MustRegister(r.documents, r.failures, r.annotations, r.duration)
	return r
}

func (r *Recorder) ObserveGraph(source string, graph *standoff.Graph, elapsed time.Duration) {
	r.documents.WithLabelValues(source).Inc()
	r.annotations.WithLabelValues("theme").Add(float64(len(graph.Themes())))
	r.annotations.WithLabelValues("event").Add(float64(len(graph.Events())))
	r.duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveFailure(source string, err error) {
	r.failures.WithLabelValues(source, standoff.ErrorClass(err)).Inc()
}

// Build runs load and records its outcome.
func (r *Recorder) Build(source string, load standoff.Loader, doc standoff.Document) (*standoff.Graph, error) {
	start := time.Now()
	graph, err := load(doc)
	if err != nil {
		r.ObserveFailure(source, err)
		return nil, err
	}
	r.ObserveGraph(source, graph, time.Since(start))
	return graph, nil
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
