// Package metrics defines and registers the Prometheus metrics for the admin
// API. It is the single source of truth for metric names, labels, and help
// strings; everything registers with the default registry via promauto.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopadmin"

// RequestsTotal counts handled HTTP requests.
// Labels:
//   - method: HTTP method
//   - path: the matched route template, not the raw URL
//   - status: numeric HTTP status code
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled.",
	},
	[]string{"method", "path", "status"},
)

// RequestDuration measures request latency per route.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP request handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

// ExportsTotal counts spreadsheet exports by entity.
var ExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exports_total",
		Help:      "Total number of spreadsheet exports generated, by entity.",
	},
	[]string{"entity"},
)

// ImportsReviewedTotal counts goods-receipt review decisions.
// Label:
//   - decision: "approved" or "rejected"
var ImportsReviewedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_reviewed_total",
		Help:      "Total number of inventory import documents reviewed, by decision.",
	},
	[]string{"decision"},
)

// Middleware records request counts and latencies for every matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
