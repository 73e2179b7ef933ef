// Package metrics exposes Prometheus collectors for the portal.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts auth operations by operation and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idcard",
		Name:      "auth_events_total",
		Help:      "Admin authentication operations by outcome.",
	}, []string{"operation", "outcome"})

	// Registrations counts student create attempts by outcome.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idcard",
		Name:      "registrations_total",
		Help:      "Student registration attempts by outcome.",
	}, []string{"outcome"})

	// DuplicateHits counts composite-key collisions by where they were caught.
	DuplicateHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "idcard",
		Name:      "duplicate_hits_total",
		Help:      "Duplicate registrations caught, by layer (lookup, precheck, constraint).",
	}, []string{"layer"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "idcard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Middleware records request latency keyed by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
