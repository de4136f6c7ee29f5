package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blog"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	content      *prometheus.CounterVec
	logins       *prometheus.CounterVec
	imageStored  *prometheus.CounterVec
	imageResize  *prometheus.CounterVec
	imageCleanup *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry. Go runtime and
// process collectors are registered alongside the application metrics.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		content: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_events_total",
			Help:      "Posts, comments and users created, updated or deleted.",
		}, []string{"resource", "action"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		imageStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_stored_total",
			Help:      "Image uploads written to the media store by outcome.",
		}, []string{"outcome"}),
		imageResize: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_resizes_total",
			Help:      "Image resize attempts by outcome.",
		}, []string{"outcome"}),
		imageCleanup: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cleanups_total",
			Help:      "Deletions of replaced or orphaned images by outcome.",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncPostCreated() { p.content.WithLabelValues("post", "created").Inc() }
func (p *PrometheusRecorder) IncPostUpdated() { p.content.WithLabelValues("post", "updated").Inc() }
func (p *PrometheusRecorder) IncPostDeleted() { p.content.WithLabelValues("post", "deleted").Inc() }
func (p *PrometheusRecorder) IncCommentCreated() { p.content.WithLabelValues("comment", "created").Inc() }
func (p *PrometheusRecorder) IncCommentDeleted() { p.content.WithLabelValues("comment", "deleted").Inc() }
func (p *PrometheusRecorder) IncUserRegistered() { p.content.WithLabelValues("user", "created").Inc() }

func (p *PrometheusRecorder) IncLogin(outcome string) { p.logins.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncImageStored(outcome string) { p.imageStored.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncImageResize(outcome string) { p.imageResize.WithLabelValues(outcome).Inc() }
func (p *PrometheusRecorder) IncImageCleanup(outcome string) { p.imageCleanup.WithLabelValues(outcome).Inc() }

// ObserveHTTPRequest records one finished request. route should be the
// router pattern, not the raw path, to bound label cardinality.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
