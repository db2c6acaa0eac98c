// Package metric provides a Prometheus implementation of
// songsim.MetricsCollector.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/songsim"
)

const namespace = "songsim"

var _ songsim.MetricsCollector = (*Prometheus)(nil)

// Prometheus records engine operations on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	latency    *prometheus.HistogramVec
	operations *prometheus.CounterVec
	requestedK *prometheus.HistogramVec
}

// New creates a collector with its own registry. Pass prometheus.Labels to
// attach constant labels to every series, or nil.
func New(constLabels prometheus.Labels) *Prometheus {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "operation_latency_seconds",
			Help:        "Latency of engine operations.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"op", "backend", "status"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "operations_total",
			Help:        "Engine operations by outcome.",
			ConstLabels: constLabels,
		}, []string{"op", "backend", "status"}),
		requestedK: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "search_k",
			Help:        "Requested result counts.",
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
			ConstLabels: constLabels,
		}, []string{"op"}),
	}
}

// Registry returns the registry the collector's series live in.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Gatherer returns the registry as a prometheus.Gatherer, e.g. for promhttp.
func (p *Prometheus) Gatherer() prometheus.Gatherer { return p.registry }

// RecordInsert implements songsim.MetricsCollector.
func (p *Prometheus) RecordInsert(d time.Duration, err error) {
	p.observe("insert", "", d, err)
}

// RecordSearch implements songsim.MetricsCollector.
func (p *Prometheus) RecordSearch(backend string, k int, d time.Duration, err error) {
	p.observe("search", backend, d, err)
	if k > 0 {
		p.requestedK.WithLabelValues("search").Observe(float64(k))
	}
}

// RecordTextSearch implements songsim.MetricsCollector.
func (p *Prometheus) RecordTextSearch(k int, d time.Duration, err error) {
	p.observe("text_search", "", d, err)
	if k > 0 {
		p.requestedK.WithLabelValues("text_search").Observe(float64(k))
	}
}

// RecordBuild implements songsim.MetricsCollector.
func (p *Prometheus) RecordBuild(kind string, d time.Duration, err error) {
	p.observe("build", kind, d, err)
}

func (p *Prometheus) observe(op, backend string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.latency.WithLabelValues(op, backend, status).Observe(d.Seconds())
	p.operations.WithLabelValues(op, backend, status).Inc()
}
