// Package metrics exposes Prometheus collectors for the ops HTTP server and
// the run-level pipeline gauges.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caviarwatch_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caviarwatch_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	digestEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caviarwatch_digest_entries",
			Help: "Number of listings in the most recently built digest.",
		},
	)

	digestBuiltTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caviarwatch_digest_built_timestamp_seconds",
			Help: "Unix time the digest was last rebuilt.",
		},
	)
)

// ObserveDigestBuild records the size and build time of a fresh digest.
func ObserveDigestBuild(entries int, builtAt time.Time) {
	digestEntries.Set(float64(entries))
	digestBuiltTimestamp.Set(float64(builtAt.Unix()))
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
