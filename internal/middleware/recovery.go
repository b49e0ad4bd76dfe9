package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
)

// Recovery turns handler panics into 500 responses and logs them at error
// level, which also reports them to Sentry when it is configured.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(false),
	)
}
