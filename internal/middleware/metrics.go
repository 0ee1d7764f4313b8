package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"pdf-pagetool/internal/metrics"
)

// metricsResponseWriter captures the status code. For event-stream
// endpoints it also records time to first byte, since total duration
// would just measure how long the client stayed subscribed.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
	isEventStream bool
	startTime     time.Time
	firstByteTime time.Time
}

func newMetricsResponseWriter(w http.ResponseWriter, start time.Time, isEventStream bool) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		isEventStream:  isEventStream,
		startTime:      start,
	}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	if !rw.headerWritten {
		rw.statusCode = code
		rw.headerWritten = true
		if rw.isEventStream {
			rw.firstByteTime = time.Now()
		}
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	if !rw.headerWritten {
		rw.headerWritten = true
		if rw.isEventStream {
			rw.firstByteTime = time.Now()
		}
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *metricsResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// GetDuration returns the duration to record: time to first byte for
// event streams, total elapsed time otherwise.
func (rw *metricsResponseWriter) GetDuration() time.Duration {
	if rw.isEventStream && !rw.firstByteTime.IsZero() {
		return rw.firstByteTime.Sub(rw.startTime)
	}
	return time.Since(rw.startTime)
}

// MetricsConfig holds configuration for the metrics middleware.
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newMetricsResponseWriter(w, time.Now(), isEventStreamPath(r.URL.Path))

			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(wrapped.GetDuration().Seconds())
		})
	}
}

func isEventStreamPath(path string) bool {
	return path == "/api/events" || strings.HasPrefix(path, "/api/events/")
}

// wildcardPrefixes are routes whose trailing segments carry source file
// paths; they are collapsed to a placeholder to keep label cardinality
// bounded.
var wildcardPrefixes = []string{
	"/api/thumbnail/",
}

// normalizePath collapses dynamic path segments for metric labels.
func normalizePath(path string) string {
	for _, prefix := range wildcardPrefixes {
		if strings.HasPrefix(path, prefix) {
			return prefix + "{key}"
		}
	}

	// Anything unexpectedly deep is truncated the same way.
	parts := strings.Split(path, "/")
	if len(parts) > 5 {
		return strings.Join(parts[:5], "/") + "/{path}"
	}
	return path
}
