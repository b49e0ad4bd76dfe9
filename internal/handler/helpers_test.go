package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/DukeRupert/outreach/internal/ai"
	"github.com/DukeRupert/outreach/internal/ai/mock"
	"github.com/DukeRupert/outreach/internal/auth"
	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/email"
	"github.com/DukeRupert/outreach/internal/identity"
	"github.com/DukeRupert/outreach/internal/outreach"
	"github.com/DukeRupert/outreach/internal/service"
	"github.com/DukeRupert/outreach/internal/session"
)

// =============================================================================
// Fakes
// =============================================================================

// tokenResolver accepts "good-token" (and any body email) and rejects
// everything else.
type tokenResolver struct{}

func (tokenResolver) Resolve(token, emailAddr, name string) (*identity.Identity, error) {
	if token == "good-token" {
		return &identity.Identity{Email: "ada@purdue.edu", Name: "Ada Lovelace", Subject: "sub-1"}, nil
	}
	if emailAddr != "" {
		return &identity.Identity{Email: emailAddr, Name: name}, nil
	}
	return nil, identity.ErrMalformedToken
}

// recordingMailer records sends and returns err.
type recordingMailer struct {
	mu   sync.Mutex
	err  error
	sent []email.Message
}

func (m *recordingMailer) Send(ctx context.Context, msg email.Message, creds email.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// stubRenderer captures what a handler asked to render.
type stubRenderer struct {
	name string
	data any
}

func (r *stubRenderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	r.name = name
	r.data = data
	w.WriteHeader(http.StatusOK)
}

// =============================================================================
// Fixtures
// =============================================================================

type fixture struct {
	store    *session.MemoryStore
	mailer   *recordingMailer
	provider *mock.Provider
	auth     service.AuthService
	outreach service.OutreachService
	renderer *stubRenderer
}

func newFixture() *fixture {
	f := &fixture{
		store:    session.NewMemoryStore(),
		mailer:   &recordingMailer{},
		provider: mock.New(testLogger()),
		renderer: &stubRenderer{},
	}
	f.auth = service.NewAuthService(tokenResolver{}, f.store, time.Hour, testLogger())
	f.outreach = service.NewOutreachService(outreach.DefaultEvent(), f.provider, f.mailer, testLogger())
	return f
}

// failingProvider always errors, forcing the template fallback.
func failingProvider() ai.Drafter {
	p := mock.New(testLogger())
	p.DraftError = errors.New("upstream down")
	return p
}

func signedIn(req *http.Request) *http.Request {
	user := &domain.User{Email: "ada@purdue.edu", Name: "Ada Lovelace"}
	return req.WithContext(auth.NewContext(req.Context(), user))
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func signInGood() domain.SignInParams {
	return domain.SignInParams{Token: "good-token"}
}
