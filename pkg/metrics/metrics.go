package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route"})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_http_errors_total",
		Help: "Total number of HTTP requests resulting in server errors.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	syncedEmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_synced_emails_total",
		Help: "Emails processed by sync runs, by outcome.",
	}, []string{"outcome"})

	externalCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_external_call_duration_seconds",
		Help:    "Histogram of latencies for upstream API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})
)

// Middleware records request count, error count and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := c.Writer.Status()
		statusCode := strconv.Itoa(status)

		httpRequestsTotal.WithLabelValues(method, route).Inc()
		httpRequestDuration.WithLabelValues(method, route, statusCode).Observe(time.Since(start).Seconds())
		if status >= http.StatusInternalServerError {
			httpErrorsTotal.WithLabelValues(method, route, statusCode).Inc()
		}
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSyncOutcome tallies one sync run's saved/skipped/failed counts.
func RecordSyncOutcome(saved, skipped, failed int) {
	syncedEmailsTotal.WithLabelValues("saved").Add(float64(saved))
	syncedEmailsTotal.WithLabelValues("skipped").Add(float64(skipped))
	syncedEmailsTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveExternalCall records the latency of one upstream API call
// (gmail, openai, apify, chroma).
func ObserveExternalCall(service string, start time.Time) {
	externalCallDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}
