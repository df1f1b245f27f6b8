package api

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/book-expert/voice-studio/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "voice_studio"

// Generation outcomes.
const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	eventClients       prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry. Collection sizes
// are read from sess at scrape time.
func NewMetrics(sess *session.Session) *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "generations_total",
				Help:      "Total number of generation submissions",
			},
			[]string{"outcome"}, // outcome: success, error, rejected
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of synthesis calls in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2, 2.5, 5, 10, 30},
			},
		),
		eventClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "event_clients",
				Help:      "Number of connected events feed clients",
			},
		),
	}

	metrics.registry.MustRegister(
		metrics.requestsTotal,
		metrics.requestDuration,
		metrics.generationsTotal,
		metrics.generationDuration,
		metrics.eventClients,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "voice_profiles",
				Help:      "Number of voice profiles",
			},
			func() float64 { return float64(len(sess.Profiles())) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "history_records",
				Help:      "Number of generation history records",
			},
			func() float64 { return float64(len(sess.History())) },
		),
		collectors.NewGoCollector(),
	)

	return metrics
}

// Handler returns the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeGeneration(outcome string, elapsed time.Duration) {
	m.generationsTotal.WithLabelValues(outcome).Inc()

	if outcome != outcomeRejected {
		m.generationDuration.Observe(elapsed.Seconds())
	}
}

// instrument counts requests by matched route pattern and status code.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status. It keeps Hijack available
// for the websocket upgrade.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(s.ResponseWriter).Hijack()
}

func (s *statusRecorder) Flush() {
	_ = http.NewResponseController(s.ResponseWriter).Flush()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
