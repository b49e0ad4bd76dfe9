package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS allows credentialed cross-origin calls from the listed origins,
// e.g. a client dev server on another port. An empty list disables CORS
// headers entirely.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
		handlers.AllowCredentials(),
		handlers.MaxAge(600),
	)
}
