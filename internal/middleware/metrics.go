package middleware

import (
	"net/http"
	"time"

	"github.com/givehub/escrow-backend/internal/metrics"
)

// Metrics records request counts and latency per endpoint.
func Metrics(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			recorder.IncRequestsTotal(r.URL.Path, sw.status)
			recorder.ObserveRequestDuration(r.URL.Path, duration)
		})
	}
}
