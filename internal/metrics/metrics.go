package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the blog's prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entriesDropped  *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		entriesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_index_entries_dropped_total",
				Help: "Index entries left out because no title could be extracted",
			},
			[]string{"reason"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_page_outcomes_total",
				Help: "Rendered pages by kind and status",
			},
			[]string{"page", "status"},
		),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.entriesDropped, m.outcomes)
	return m
}

// EntryDropped counts an index entry skipped for reason.
func (m *Metrics) EntryDropped(reason string) {
	m.entriesDropped.WithLabelValues(reason).Inc()
}

// PageServed counts a finished index or post outcome.
func (m *Metrics) PageServed(page string, status int) {
	m.outcomes.WithLabelValues(page, strconv.Itoa(status)).Inc()
}

// Middleware records request counts and latency per route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			m.requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()
			m.requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
