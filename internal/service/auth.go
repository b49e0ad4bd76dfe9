// Package service contains the business logic layer.
//
// Services sit between the HTTP handlers and the external systems the
// application talks to: the session store, the AI providers and the
// organizer's SMTP account. They validate input, enforce business rules and
// translate failures into domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/identity"
	"github.com/DukeRupert/outreach/internal/metrics"
	"github.com/DukeRupert/outreach/internal/session"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AuthService manages organizer sign-in and sessions.
type AuthService interface {
	// SignIn resolves the identity behind a Google ID token and opens a
	// session. Returns domain.EUNAUTHORIZED when no identity can be resolved.
	SignIn(ctx context.Context, params domain.SignInParams) (*domain.SignInResult, error)

	// GetBySessionToken returns the user for a raw session token.
	// Returns domain.EUNAUTHORIZED for unknown or expired sessions.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// SignOut destroys the session. It is idempotent.
	SignOut(ctx context.Context, token string) error
}

// IdentityResolver turns an ID token plus client-decoded claims into an
// identity. *identity.Decoder implements it.
type IdentityResolver interface {
	Resolve(token, email, name string) (*identity.Identity, error)
}

// =============================================================================
// Implementation
// =============================================================================

type authService struct {
	resolver IdentityResolver
	store    session.Store
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService. A zero ttl uses session.DefaultTTL.
func NewAuthService(resolver IdentityResolver, store session.Store, ttl time.Duration, logger *slog.Logger) AuthService {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &authService{
		resolver: resolver,
		store:    store,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// =============================================================================
// SignIn
// =============================================================================

func (s *authService) SignIn(ctx context.Context, params domain.SignInParams) (*domain.SignInResult, error) {
	const op = "auth.sign_in"

	id, err := s.resolver.Resolve(params.Token, params.Email, params.Name)
	if err != nil {
		metrics.SignIns.WithLabelValues("rejected").Inc()
		s.logger.Info("sign-in rejected", "reason", err.Error())
		return nil, &domain.Error{
			Code:    domain.EUNAUTHORIZED,
			Op:      op,
			Message: "Authentication failed",
			Err:     err,
		}
	}

	token, err := session.GenerateToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate session token")
	}

	now := s.now()
	user := domain.User{
		Email:      id.Email,
		Name:       id.Name,
		Subject:    id.Subject,
		Picture:    id.Picture,
		SignedInAt: now,
	}

	sess := &session.Session{
		TokenHash: session.HashToken(token),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	metrics.SignIns.WithLabelValues("ok").Inc()
	s.logger.Info("user signed in", "email", user.Email)

	return &domain.SignInResult{
		User:      &user,
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// =============================================================================
// GetBySessionToken
// =============================================================================

func (s *authService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "auth.get_by_session_token"

	if !session.ValidTokenFormat(token) {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	sess, err := s.store.Get(ctx, session.HashToken(token))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	user := sess.User
	return &user, nil
}

// =============================================================================
// SignOut
// =============================================================================

func (s *authService) SignOut(ctx context.Context, token string) error {
	if !session.ValidTokenFormat(token) {
		return nil
	}

	if err := s.store.Delete(ctx, session.HashToken(token)); err != nil {
		// Logout errors are logged, never surfaced
		s.logger.Warn("failed to delete session", "error", err)
		return nil
	}

	s.logger.Debug("session invalidated")
	return nil
}
