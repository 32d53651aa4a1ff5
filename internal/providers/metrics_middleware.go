package providers

import (
	"net/http"
	"time"
)

// unmatchedEndpoint labels requests no route claimed, so scanners
// cannot grow the label set.
const unmatchedEndpoint = "unmatched"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := endpointLabel(r, sw.status)
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
	})
}

// endpointLabel prefers the ServeMux pattern that served r.
func endpointLabel(r *http.Request, status int) string {
	if r.Pattern != "" && r.Pattern != "/" {
		return r.Pattern
	}
	if status == http.StatusNotFound {
		return unmatchedEndpoint
	}
	return r.URL.Path
}
