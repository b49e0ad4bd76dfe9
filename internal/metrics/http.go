package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
)

// routeLabel returns the ServeMux pattern that matched the request. The
// mux records it on the request it was handed, so Middleware must wrap the
// mux directly. Unmatched paths share one label to bound cardinality.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// skipped reports paths that are not worth recording.
func skipped(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/static/")
}

// Middleware records request count, latency, and response size per route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		m := httpsnoop.CaptureMetrics(next, w, r)

		route := routeLabel(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(m.Duration.Seconds())
		HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(m.Written))
	})
}
