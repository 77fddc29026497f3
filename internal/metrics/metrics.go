// Package metrics exposes the service's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Connect flow
	ConnectViewsTotal *prometheus.CounterVec // by step
	LinkOutcomesTotal *prometheus.CounterVec // by result: linked or a failure kind
	SignInsTotal      *prometheus.CounterVec // by provider and result
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// NewMetrics creates and registers all metrics on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_connect_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sso_connect_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ConnectViewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_connect_views_total",
				Help: "Connect pages rendered, by step",
			},
			[]string{"step"},
		),
		LinkOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_connect_link_outcomes_total",
				Help: "Registration submissions, by result",
			},
			[]string{"result"},
		),
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_connect_sign_ins_total",
				Help: "Sign-in attempts, by provider and result",
			},
			[]string{"provider", "result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ConnectViewsTotal,
		m.LinkOutcomesTotal,
		m.SignInsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and durations per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveView(step string) {
	m.ConnectViewsTotal.WithLabelValues(step).Inc()
}

// ObserveLink records a registration result: "linked" or a failure kind.
func (m *Metrics) ObserveLink(result string) {
	m.LinkOutcomesTotal.WithLabelValues(result).Inc()
}

// ObserveSignIn records a sign-in result such as "session", "connect" or "error".
func (m *Metrics) ObserveSignIn(provider, result string) {
	m.SignInsTotal.WithLabelValues(provider, result).Inc()
}
