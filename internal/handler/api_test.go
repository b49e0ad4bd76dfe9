package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/outreach/internal/outreach"
	"github.com/DukeRupert/outreach/internal/service"
	"github.com/DukeRupert/outreach/internal/session"
)

func newTestAPIHandler(f *fixture) *APIHandler {
	return NewAPIHandler(f.auth, f.outreach, testLogger(), time.Hour, false)
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// =============================================================================
// POST /api/auth/verify-token
// =============================================================================

func TestVerifyToken_SetsSessionCookie(t *testing.T) {
	f := newFixture()
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.VerifyToken(rec, postJSON("/api/auth/verify-token", `{"token":"good-token"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}

	cookie := findCookie(rec, session.CookieName)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d", cookie.MaxAge, int(time.Hour.Seconds()))
	}
	if f.store.Len() != 1 {
		t.Errorf("expected one stored session, got %d", f.store.Len())
	}
}

func TestVerifyToken_RejectsUnresolvableToken(t *testing.T) {
	f := newFixture()
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.VerifyToken(rec, postJSON("/api/auth/verify-token", `{"token":"garbage"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Message != "Authentication failed" {
		t.Errorf("unexpected response %+v", resp)
	}
	if findCookie(rec, session.CookieName) != nil {
		t.Error("no cookie should be set on failure")
	}
}

func TestVerifyToken_RejectsInvalidJSON(t *testing.T) {
	h := newTestAPIHandler(newFixture())

	rec := httptest.NewRecorder()
	h.VerifyToken(rec, postJSON("/api/auth/verify-token", `{"token":`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// =============================================================================
// GET /api/user
// =============================================================================

func TestCurrentUser_Anonymous(t *testing.T) {
	h := newTestAPIHandler(newFixture())

	rec := httptest.NewRecorder()
	h.CurrentUser(rec, httptest.NewRequest("GET", "/api/user", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"isAuthenticated":false}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestCurrentUser_SignedIn(t *testing.T) {
	h := newTestAPIHandler(newFixture())

	rec := httptest.NewRecorder()
	h.CurrentUser(rec, signedIn(httptest.NewRequest("GET", "/api/user", nil)))

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsAuthenticated || resp.User == nil {
		t.Fatalf("expected authenticated user, got %+v", resp)
	}
	if resp.User.Email != "ada@purdue.edu" || resp.User.Name != "Ada Lovelace" {
		t.Errorf("unexpected user %+v", resp.User)
	}
}

// =============================================================================
// POST /api/generate-ai-email
// =============================================================================

func TestGenerateEmail_Template(t *testing.T) {
	f := newFixture()
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.GenerateEmail(rec, postJSON("/api/generate-ai-email",
		`{"sponsorName":"Acme","senderName":"Ada","senderPosition":"Organizer","useAI":false}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp generateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if !strings.HasPrefix(resp.EmailContent, "Dear Acme Team,") {
		t.Errorf("unexpected draft: %q", resp.EmailContent)
	}
	if f.provider.Calls() != 0 {
		t.Error("template mode must not call the AI provider")
	}
}

func TestGenerateEmail_AI(t *testing.T) {
	f := newFixture()
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.GenerateEmail(rec, postJSON("/api/generate-ai-email", `{"sponsorName":"Acme","useAI":true}`))

	var resp generateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.EmailContent, "Acme's developer APIs, SDKs, and cloud platform credits") {
		t.Errorf("expected AI-customized draft, got %q", resp.EmailContent)
	}
	if f.provider.Calls() != 1 {
		t.Errorf("expected one provider call, got %d", f.provider.Calls())
	}
}

func TestGenerateEmail_AIFailureFallsBackToTemplate(t *testing.T) {
	f := newFixture()
	f.outreach = service.NewOutreachService(outreach.DefaultEvent(), failingProvider(), f.mailer, testLogger())
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.GenerateEmail(rec, postJSON("/api/generate-ai-email", `{"sponsorName":"Acme","useAI":true}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp generateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.EmailContent, "Acme's tools, APIs, or platform credits") {
		t.Errorf("expected template draft, got %q", resp.EmailContent)
	}
}

func TestGenerateEmail_MissingSponsor(t *testing.T) {
	h := newTestAPIHandler(newFixture())

	rec := httptest.NewRecorder()
	h.GenerateEmail(rec, postJSON("/api/generate-ai-email", `{"sponsorName":"  "}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Sponsor name required" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

// =============================================================================
// POST /api/send-email
// =============================================================================

const validSendBody = `{
	"sponsorName": "Acme",
	"sponsorEmail": "partners@acme.com",
	"senderName": "Ada Lovelace",
	"senderPosition": "Organizer",
	"senderEmail": "ada@purdue.edu",
	"senderPassword": "app-password",
	"emailContent": "Dear Acme Team,\n\nHello."
}`

func TestSendEmail_Success(t *testing.T) {
	f := newFixture()
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.SendEmail(rec, postJSON("/api/send-email", validSendBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Message != "Email sent successfully!" {
		t.Errorf("unexpected response %+v", resp)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To != "partners@acme.com" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "Biggest 24 hour hackathon in the Midwest - Sponsorship Opportunity for Acme" {
		t.Errorf("Subject = %q", msg.Subject)
	}
}

func TestSendEmail_MissingFields(t *testing.T) {
	f := newFixture()
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.SendEmail(rec, postJSON("/api/send-email", `{"sponsorName":"Acme"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Missing required fields" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if len(f.mailer.sent) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestSendEmail_AuthFailure(t *testing.T) {
	f := newFixture()
	f.mailer.err = &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}
	h := newTestAPIHandler(f)

	rec := httptest.NewRecorder()
	h.SendEmail(rec, postJSON("/api/send-email", validSendBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp sendFailureResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Code != "EAUTH" {
		t.Errorf("Code = %q, want EAUTH", resp.Code)
	}
	if resp.Message != "Authentication failed. Check your email and password. For Gmail, use an App Password." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if !strings.Contains(resp.Error, "535") {
		t.Errorf("expected raw error detail, got %q", resp.Error)
	}
}

// =============================================================================
// Routing
// =============================================================================

func TestAPIRoutes_RequireUserGuardsDraftAndSend(t *testing.T) {
	h := newTestAPIHandler(newFixture())

	var guarded []string
	requireUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guarded = append(guarded, r.URL.Path)
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, requireUser)

	for _, path := range []string{"/api/generate-ai-email", "/api/send-email"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, postJSON(path, `{}`))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/user", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/api/user should be public, got %d", rec.Code)
	}

	if len(guarded) != 2 {
		t.Errorf("expected two guarded calls, got %v", guarded)
	}
}
