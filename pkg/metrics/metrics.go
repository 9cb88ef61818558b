package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	StatusMoves          *prometheus.CounterVec
	NotificationsCreated *prometheus.CounterVec
	AssistantRequests    *prometheus.CounterVec
	JobRuns              *prometheus.CounterVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates a Metrics instance registered with reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		StatusMoves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_status_moves_total",
				Help: "Total number of pipeline status moves",
			},
			[]string{"kind", "to"},
		),
		NotificationsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_created_total",
				Help: "Total number of notifications created",
			},
			[]string{"type"},
		),
		AssistantRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_requests_total",
				Help: "Total number of AI assistant requests",
			},
			[]string{"status"}, // success, failed
		),
		JobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_runs_total",
				Help: "Total number of scheduled job runs",
			},
			[]string{"job", "status"},
		),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of list cache hits",
			},
			[]string{"collection"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of list cache misses",
			},
			[]string{"collection"},
		),

		gatherer: reg,
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			path := c.Path() // route pattern, e.g. /api/v1/leads/:id
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// StatusMoved counts a pipeline move
func (m *Metrics) StatusMoved(kind, _, to string) {
	m.StatusMoves.WithLabelValues(kind, to).Inc()
}

// NotificationCreated counts a created notification
func (m *Metrics) NotificationCreated(notificationType string) {
	m.NotificationsCreated.WithLabelValues(notificationType).Inc()
}

// RecordAssistantRequest counts an assistant call
func (m *Metrics) RecordAssistantRequest(success bool) {
	status := "failed"
	if success {
		status = "success"
	}
	m.AssistantRequests.WithLabelValues(status).Inc()
}

// RecordJobRun counts a scheduled job run
func (m *Metrics) RecordJobRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	m.DBConnections.Set(count)
}

// CacheHit counts a list cache hit
func (m *Metrics) CacheHit(collection string) {
	m.CacheHits.WithLabelValues(collection).Inc()
}

// CacheMiss counts a list cache miss
func (m *Metrics) CacheMiss(collection string) {
	m.CacheMisses.WithLabelValues(collection).Inc()
}
