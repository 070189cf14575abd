// Package metrics exposes Prometheus metrics for the HTTP boundary and the
// inference pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultInferenceDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5}
	DefaultSizeBuckets              = []float64{1 << 10, 16 << 10, 128 << 10, 1 << 20, 4 << 20, 16 << 20}
)

// Config controls registration.
type Config struct {
	Namespace            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

// Metrics holds every collector the service records into.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge

	ClassifyTotal     *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
	ActiveInferences  prometheus.Gauge
	ImageBytes        *prometheus.HistogramVec
	FetchDuration     prometheus.Histogram
}

// New registers all collectors on a private registry.
func New(cfg Config) *Metrics {
	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}

	ns := cfg.Namespace
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "http_requests_total", Help: "Total HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "http_request_duration_seconds", Help: "HTTP request duration",
			Buckets: DefaultHTTPDurationBuckets,
		}, []string{"method", "path"}),
		HTTPActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "http_active_requests", Help: "In-flight HTTP requests",
		}),
		ClassifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "classify_requests_total", Help: "Classification requests by image source and outcome",
		}, []string{"source", "outcome"}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "inference_duration_seconds", Help: "Time spent scoring one image",
			Buckets: DefaultInferenceDurationBuckets,
		}),
		ActiveInferences: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "inference_active", Help: "Images currently being scored",
		}),
		ImageBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "image_size_bytes", Help: "Size of images received",
			Buckets: DefaultSizeBuckets,
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "image_fetch_duration_seconds", Help: "Time spent fetching images by URL",
			Buckets: DefaultHTTPDurationBuckets,
		}),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPActiveRequests,
		m.ClassifyTotal, m.InferenceDuration, m.ActiveInferences,
		m.ImageBytes, m.FetchDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// TrackRequest increments the in-flight gauge and returns the matching
// decrement.
func (m *Metrics) TrackRequest() func() {
	if m == nil {
		return func() {}
	}
	m.HTTPActiveRequests.Inc()
	return m.HTTPActiveRequests.Dec
}

// RecordClassify counts one classification by source ("url", "upload",
// "cli") and outcome ("ok" or an error kind).
func (m *Metrics) RecordClassify(source, outcome string) {
	if m == nil {
		return
	}
	m.ClassifyTotal.WithLabelValues(source, outcome).Inc()
}

// TrackInference marks one scoring call in flight; the returned func
// records its duration.
func (m *Metrics) TrackInference() func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	m.ActiveInferences.Inc()
	return func() {
		m.ActiveInferences.Dec()
		m.InferenceDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RecordImage(source string, size int) {
	if m == nil {
		return
	}
	m.ImageBytes.WithLabelValues(source).Observe(float64(size))
}

func (m *Metrics) RecordFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}
