package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	solvesTotal       *prometheus.CounterVec
	solveDuration     prometheus.Histogram
	storedRuns        prometheus.Gauge
}

// NewMetrics registers the collectors on a fresh registry, so several servers (and
// tests) can live in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		solvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solves_total",
			Help: "Total count of scenario solves by final status.",
		}, []string{"status"}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "solve_duration_seconds",
			Help:    "Histogram of solver wall time.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		storedRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stored_runs",
			Help: "Number of solve results currently kept for retrieval.",
		}),
	}
	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.solvesTotal,
		m.solveDuration,
		m.storedRuns,
	)
	return m
}

// Middleware records request counts and durations keyed by the matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// Solve records one finished solve
func (m *Metrics) Solve(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.solvesTotal.WithLabelValues(status).Inc()
	m.solveDuration.Observe(d.Seconds())
}

func (m *Metrics) SetStoredRuns(n int) {
	if m == nil {
		return
	}
	m.storedRuns.Set(float64(n))
}
