package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/outreach/internal/domain"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse writes an error response to the client.
// It maps domain error codes to HTTP status codes and formats appropriately
// based on the request (JSON envelope for API requests, plain text otherwise).
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, domain.ErrorOp(err), status)

	if AcceptsJSON(r) {
		writeJSON(w, status, APIResponse{Success: false, Message: message})
		return
	}

	http.Error(w, message, status)
}

var codeStatus = map[string]int{
	domain.EINVALID:      http.StatusBadRequest,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.EUNAVAILABLE:  http.StatusBadGateway,
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
// Unknown codes are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ValidationErrorResponse writes field-level validation errors. The op name
// is never exposed. message replaces the generic "Validation failed" text.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		// Not a validation error, fall back to standard error response
		ErrorResponse(w, r, logger, err)
		return
	}

	logger.Info("validation error",
		"op", ve.Op,
		"fields", strings.Join(ve.FieldNames(), ","),
		"path", r.URL.Path,
	)

	if message == "" {
		message = "Validation failed"
	}

	if AcceptsJSON(r) {
		writeJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Message: message,
			Fields:  ve.Fields,
		})
		return
	}

	http.Error(w, message+". Please check your input and try again.", http.StatusBadRequest)
}

// UnauthorizedResponse is a convenience wrapper for 401 errors.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	err := domain.Unauthorized("", "Authentication required")
	ErrorResponse(w, r, logger, err)
}

// InternalErrorResponse logs the error and returns a 500 response with a
// fixed message. The underlying error details are hidden from the user.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	logError(logger, r, err, domain.EINTERNAL, domain.ErrorOp(err), http.StatusInternalServerError)

	if AcceptsJSON(r) {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: message})
		return
	}
	http.Error(w, message, http.StatusInternalServerError)
}

// logError logs 5xx at error level and 4xx at info level.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	level, msg := slog.LevelInfo, "client error"
	if status >= 500 {
		level, msg = slog.LevelError, "server error"
	}

	attrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.String("code", code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
	}
	if op != "" {
		attrs = append(attrs, slog.String("op", op))
	}
	logger.LogAttrs(r.Context(), level, msg, attrs...)
}

// AcceptsJSON reports whether the caller should get the JSON envelope: an
// /api/ path, a JSON Accept header, or a JSON request body.
func AcceptsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// maxJSONBody bounds API request bodies. Drafts are a few KB.
const maxJSONBody = 1 << 20

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return domain.Wrap(err, domain.EINVALID, "", "Invalid JSON body")
	}
	return nil
}
