package middleware

import (
	"net/http"
	"time"

	"github.com/conteo/landing/internal/metrics"
)

// Instrument records method, route pattern, status and latency of every
// request. Unmatched routes are grouped under "unmatched" to keep label
// cardinality bounded.
func Instrument(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if wrapped.status != http.StatusNotFound {
				route = routePattern(r)
			}
			recorder.ObserveHTTPRequest(r.Method, route, wrapped.status, time.Since(start))
		})
	}
}
