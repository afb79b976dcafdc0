package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventreg"

// Recorder owns the service's Prometheus collectors on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	cancellations    *prometheus.CounterVec
	published        *prometheus.CounterVec
	requests         *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// NewRecorder registers all collectors together with Go runtime and process metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkouts by outcome code.",
		}, []string{"outcome"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_seconds",
			Help:      "Checkout latency including transaction retries.",
			Buckets:   prometheus.DefBuckets,
		}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_cancellations_total",
			Help:      "Order cancellations by outcome code.",
		}, []string{"outcome"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events handed to the publisher by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"handler"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.checkouts, r.checkoutDuration, r.cancellations, r.published, r.requests, r.latency,
	)
	return r
}

// ObserveCheckout counts one checkout attempt.
func (r *Recorder) ObserveCheckout(outcome string, elapsed time.Duration) {
	r.checkouts.WithLabelValues(outcome).Inc()
	r.checkoutDuration.Observe(elapsed.Seconds())
}

// ObserveCancellation counts one cancellation attempt.
func (r *Recorder) ObserveCancellation(outcome string) {
	r.cancellations.WithLabelValues(outcome).Inc()
}

// ObservePublish counts one relay delivery attempt.
func (r *Recorder) ObservePublish(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.published.WithLabelValues(outcome).Inc()
}

// ObserveRequest records a served HTTP request. handler is the route template, not the raw path.
func (r *Recorder) ObserveRequest(handler string, status int, elapsed time.Duration) {
	r.requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	r.latency.WithLabelValues(handler).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
