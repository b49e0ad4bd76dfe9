// Package handler contains HTTP handlers for the outreach application.
//
// This file implements the sign-in page, the Google Identity Services
// callback and logout.
package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/outreach/internal/auth"
	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/outreach"
	"github.com/DukeRupert/outreach/internal/service"
	"github.com/DukeRupert/outreach/internal/session"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// csrfCookieName is the double-submit cookie Google's Sign-In library sets
// next to the g_csrf_token form field it posts to the login URI.
const csrfCookieName = "g_csrf_token"

// callbackPath receives the ID token from the Sign-In button.
const callbackPath = "/auth/google/callback"

// AuthHandler handles sign-in and sign-out.
//
// Routes handled:
// - GET  /                     -> Home
// - POST /auth/google/callback -> GoogleCallback
// - GET  /auth/logout          -> LogoutAPI
// - POST /logout               -> Logout
type AuthHandler struct {
	authService service.AuthService
	renderer    TemplateRenderer
	logger      *slog.Logger
	event       outreach.Event
	clientID    string
	baseURL     string
	sessionTTL  time.Duration
	isSecure    bool
}

// AuthConfig carries the settings the sign-in page needs.
type AuthConfig struct {
	GoogleClientID string
	BaseURL        string
	SessionTTL     time.Duration
	IsSecure       bool
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
func NewAuthHandler(
	authService service.AuthService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	event outreach.Event,
	cfg AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		renderer:    renderer,
		logger:      logger,
		event:       event,
		clientID:    cfg.GoogleClientID,
		baseURL:     cfg.BaseURL,
		sessionTTL:  cfg.SessionTTL,
		isSecure:    cfg.IsSecure,
	}
}

// RegisterRoutes registers the sign-in routes. They are all public.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("POST "+callbackPath, h.GoogleCallback)
	mux.HandleFunc("GET /auth/logout", h.LogoutAPI)
	mux.HandleFunc("POST /logout", h.Logout)
}

// =============================================================================
// Template Data Types
// =============================================================================

// Flash represents a flash message to display to the user.
//
// The Type field determines styling in templates:
// - "success" -> green background
// - "error"   -> red background
// - "info"    -> blue background
type Flash struct {
	Type    string // "success", "error", or "info"
	Message string
}

// HomePageData is passed to pages/home.html.
type HomePageData struct {
	Event    outreach.Event
	ClientID string
	LoginURI string
	Flash    *Flash
}

// signInErrors maps ?error= codes to the message shown on the home page.
var signInErrors = map[string]string{
	"signin": "Google sign-in failed. Please try again.",
	"csrf":   "Your sign-in request could not be verified. Please try again.",
}

// =============================================================================
// GET / - Sign-in page
// =============================================================================

// Home shows the Google Sign-In button. Signed-in users go straight to the
// dashboard.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if auth.FromRequest(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := HomePageData{
		Event:    h.event,
		ClientID: h.clientID,
		LoginURI: h.baseURL + callbackPath,
	}
	if msg, ok := signInErrors[r.URL.Query().Get("error")]; ok {
		data.Flash = &Flash{Type: "error", Message: msg}
	} else if r.URL.Query().Get("logout") == "1" {
		data.Flash = &Flash{Type: "info", Message: "You have been signed out."}
	}

	h.renderer.RenderHTTP(w, "home", data)
}

// =============================================================================
// POST /auth/google/callback
// =============================================================================

// GoogleCallback receives the form Google posts after a successful sign-in
// and opens a session.
//
// Form fields:
// - credential: the ID token (JWT)
// - g_csrf_token: must match the cookie of the same name when present
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse sign-in callback", "error", err)
		http.Redirect(w, r, "/?error=signin", http.StatusSeeOther)
		return
	}

	if !validCSRF(r) {
		h.logger.Warn("sign-in callback failed csrf check")
		http.Redirect(w, r, "/?error=csrf", http.StatusSeeOther)
		return
	}

	result, err := h.authService.SignIn(r.Context(), domain.SignInParams{
		Token: r.PostFormValue("credential"),
	})
	if err != nil {
		h.logger.Info("sign-in rejected", "error", err)
		http.Redirect(w, r, "/?error=signin", http.StatusSeeOther)
		return
	}

	session.SetCookie(w, result.Token, h.sessionTTL, h.isSecure)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// validCSRF applies Google's double-submit check. Clients that do not set
// the cookie (the JSON API, tests) skip it.
func validCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return true
	}

	field := r.PostFormValue(csrfCookieName)
	if field == "" || cookie.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(field)) == 1
}

// =============================================================================
// Logout
// =============================================================================

// Logout ends the session and sends the browser back to the sign-in page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	http.Redirect(w, r, "/?logout=1", http.StatusSeeOther)
}

// LogoutAPI ends the session for script clients and answers
// {"success": true}.
func (h *AuthHandler) LogoutAPI(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// endSession destroys the stored session and clears the cookie. It is
// idempotent, and the cookie is cleared even if the store fails.
func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if err := h.authService.SignOut(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("failed to destroy session", "error", err)
		}
	}

	session.ClearCookie(w, h.isSecure)
	h.logger.Debug("user logged out")
}
