package http

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/observability/metrics"
)

// RequestLogger logs basic request details and latency, and feeds the
// request metrics.
func RequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		logger.Printf(
			"request method=%s path=%s status=%d duration=%s",
			r.Method,
			r.URL.Path,
			rec.status,
			duration,
		)
		metrics.ObserveHTTPRequest(routeLabel(r.URL.Path), strconv.Itoa(rec.status), duration)
	})
}

// routeLabel collapses paths to their first segment so slot and customer ids
// do not explode the metric cardinality.
func routeLabel(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	if idx := strings.Index(trimmed, "/"); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return "/" + trimmed
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
