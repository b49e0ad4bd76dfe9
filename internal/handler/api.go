package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/outreach/internal/auth"
	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/email"
	"github.com/DukeRupert/outreach/internal/service"
	"github.com/DukeRupert/outreach/internal/session"
)

// APIHandler serves the JSON endpoints used by script clients.
type APIHandler struct {
	authService     service.AuthService
	outreachService service.OutreachService
	logger          *slog.Logger
	sessionTTL      time.Duration
	isSecure        bool
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(
	authService service.AuthService,
	outreachService service.OutreachService,
	logger *slog.Logger,
	sessionTTL time.Duration,
	isSecure bool,
) *APIHandler {
	return &APIHandler{
		authService:     authService,
		outreachService: outreachService,
		logger:          logger,
		sessionTTL:      sessionTTL,
		isSecure:        isSecure,
	}
}

// RegisterRoutes registers the API routes. requireUser guards everything
// except sign-in and the session probe.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/auth/verify-token", h.VerifyToken)
	mux.HandleFunc("GET /api/user", h.CurrentUser)
	mux.Handle("POST /api/generate-ai-email", requireUser(http.HandlerFunc(h.GenerateEmail)))
	mux.Handle("POST /api/send-email", requireUser(http.HandlerFunc(h.SendEmail)))
}

// =============================================================================
// POST /api/auth/verify-token
// =============================================================================

// VerifyToken opens a session from a Google ID token.
//
// Request: {"token": "...", "email": "...", "name": "..."}
// Response: {"success": true} plus the session cookie, or 401
// {"success": false, "message": "Authentication failed"}.
func (h *APIHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var params domain.SignInParams
	if err := decodeJSON(w, r, &params); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.authService.SignIn(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	session.SetCookie(w, result.Token, h.sessionTTL, h.isSecure)
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// =============================================================================
// GET /api/user
// =============================================================================

type userResponse struct {
	IsAuthenticated bool      `json:"isAuthenticated"`
	User            *userInfo `json:"user,omitempty"`
}

type userInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CurrentUser reports whether the caller has a live session.
func (h *APIHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := auth.FromRequest(r)
	if user == nil {
		writeJSON(w, http.StatusOK, userResponse{IsAuthenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		IsAuthenticated: true,
		User:            &userInfo{Name: user.Name, Email: user.Email},
	})
}

// =============================================================================
// POST /api/generate-ai-email
// =============================================================================

type generateResponse struct {
	Success      bool   `json:"success"`
	EmailContent string `json:"emailContent"`
}

// GenerateEmail returns a templated or AI-written draft. Provider errors
// are absorbed by the service, which falls back to the template.
func (h *APIHandler) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.DraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	draft, err := h.outreachService.Draft(r.Context(), req)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ValidationErrorResponse(w, r, h.logger, err, ve.Fields["sponsorName"])
			return
		}
		InternalErrorResponse(w, r, h.logger, err, "Failed to generate email with AI")
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Success: true, EmailContent: draft.Body})
}

// =============================================================================
// POST /api/send-email
// =============================================================================

type sendFailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// SendEmail relays one sponsorship email with the caller's SMTP credentials.
func (h *APIHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.SendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	err := h.outreachService.Send(r.Context(), req)
	if err == nil {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Email sent successfully!"})
		return
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		ValidationErrorResponse(w, r, h.logger, err, "Missing required fields")
		return
	}

	var sendErr *email.SendError
	if errors.As(err, &sendErr) {
		h.logger.Warn("send email failed", "code", sendErr.Code, "error", sendErr.Err)
		writeJSON(w, http.StatusInternalServerError, sendFailureResponse{
			Success: false,
			Message: sendErr.UserMessage(),
			Error:   sendErr.Err.Error(),
			Code:    sendErr.Code,
		})
		return
	}

	InternalErrorResponse(w, r, h.logger, err, "Failed to send email")
}
