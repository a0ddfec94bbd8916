package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements ports.MetricsCollector using Prometheus.
// Each collector owns its registry so several can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	samplesAccepted prometheus.Counter
	samplesRejected *prometheus.CounterVec
	payloadBytes    prometheus.Histogram
	eventsPublished *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec
	streamClients   prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seismo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seismo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route"},
		),
		samplesAccepted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "seismo_samples_accepted_total",
				Help: "Total number of accelerometer payloads accepted",
			},
		),
		samplesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seismo_samples_rejected_total",
				Help: "Total number of accelerometer payloads rejected",
			},
			[]string{"reason"},
		),
		payloadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seismo_payload_bytes",
				Help:    "Size of accepted accelerometer payloads in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 9),
			},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seismo_events_published_total",
				Help: "Total number of events published",
			},
			[]string{"topic"},
		),
		eventsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seismo_events_failed_total",
				Help: "Total number of events that failed to publish",
			},
			[]string{"topic"},
		),
		streamClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "seismo_stream_clients",
				Help: "Number of connected live stream clients",
			},
		),
	}
}

// Handler returns the exposition handler for this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTPRequest records a served request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncSamplesAccepted counts an accepted payload and its size
func (c *Collector) IncSamplesAccepted(payloadBytes int) {
	c.samplesAccepted.Inc()
	c.payloadBytes.Observe(float64(payloadBytes))
}

// IncSamplesRejected counts a rejected payload
func (c *Collector) IncSamplesRejected(reason string) {
	c.samplesRejected.WithLabelValues(reason).Inc()
}

// IncEventsPublished counts a published event
func (c *Collector) IncEventsPublished(topic string) {
	c.eventsPublished.WithLabelValues(topic).Inc()
}

// IncEventsFailed counts an event that could not be published
func (c *Collector) IncEventsFailed(topic string) {
	c.eventsFailed.WithLabelValues(topic).Inc()
}

// IncStreamClients tracks a newly connected stream client
func (c *Collector) IncStreamClients() {
	c.streamClients.Inc()
}

// DecStreamClients tracks a disconnected stream client
func (c *Collector) DecStreamClients() {
	c.streamClients.Dec()
}
