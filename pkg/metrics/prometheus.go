// Package metrics provides a Prometheus backed observability.MetricsCollector.
// Every collector owns its registry so several forms or tests can coexist in
// one process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formdraft/pkg/observability"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "formdraft"

// Collector records pipeline metrics into a private registry.
type Collector struct {
	registry    *prometheus.Registry
	counters    map[string]*prometheus.CounterVec
	histograms  map[string]*prometheus.HistogramVec
	gauges      map[string]*prometheus.GaugeVec
	labelsOf    map[string][]string
	withRuntime bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithRuntimeMetrics also registers the Go runtime and process collectors.
func WithRuntimeMetrics() Option {
	return func(c *Collector) { c.withRuntime = true }
}

var _ observability.MetricsCollector = (*Collector)(nil)

// New builds a collector under namespace. An empty namespace uses
// DefaultNamespace.
func New(namespace string, opts ...Option) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Collector{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		labelsOf:   make(map[string][]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	entityOutcome := []string{observability.LabelEntity, observability.LabelOutcome}
	c.counter(namespace, observability.MetricSubmissions, "Submissions by entity and outcome.", entityOutcome)
	c.histogram(namespace, observability.MetricSubmissionDuration, "Submission round trip time.", entityOutcome)
	c.counter(namespace, observability.MetricValidationFailures, "Submits blocked by local validation.",
		[]string{observability.LabelEntity})
	c.counter(namespace, observability.MetricAttachments, "Attachment selections by result.",
		[]string{observability.LabelEntity, observability.LabelResult})
	c.gauge(namespace, observability.MetricLivePreviews, "Preview handles currently held.",
		[]string{observability.LabelEntity})

	if c.withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func (c *Collector) counter(ns, name, help string, labels []string) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: name, Help: help}, labels)
	c.registry.MustRegister(vec)
	c.counters[name] = vec
	c.labelsOf[name] = labels
}

func (c *Collector) histogram(ns, name, help string, labels []string) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      name,
		Help:      help,
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, labels)
	c.registry.MustRegister(vec)
	c.histograms[name] = vec
	c.labelsOf[name] = labels
}

func (c *Collector) gauge(ns, name, help string, labels []string) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: name, Help: help}, labels)
	c.registry.MustRegister(vec)
	c.gauges[name] = vec
	c.labelsOf[name] = labels
}

// labels narrows in to the label set declared for metric; missing labels
// are recorded as empty.
func (c *Collector) labels(metric string, in map[string]string) prometheus.Labels {
	names := c.labelsOf[metric]
	out := make(prometheus.Labels, len(names))
	for _, name := range names {
		out[name] = in[name]
	}
	return out
}

// IncrementCounter adds one to metric. Unknown metrics are ignored.
func (c *Collector) IncrementCounter(metric string, labels map[string]string) {
	if vec, ok := c.counters[metric]; ok {
		vec.With(c.labels(metric, labels)).Inc()
	}
}

// RecordDuration observes duration in seconds.
func (c *Collector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	if vec, ok := c.histograms[metric]; ok {
		vec.With(c.labels(metric, labels)).Observe(duration.Seconds())
	}
}

// SetGauge sets metric to value.
func (c *Collector) SetGauge(metric string, value float64, labels map[string]string) {
	if vec, ok := c.gauges[metric]; ok {
		vec.With(c.labels(metric, labels)).Set(value)
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
