// Package auth carries the signed-in organizer through a request context.
//
// It is imported by both middleware and handler packages, so it must not
// import either.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/outreach/internal/domain"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying user.
func NewContext(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// FromContext returns the signed-in user, or nil.
func FromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(contextKey{}).(*domain.User)
	return user
}

// FromRequest is FromContext for a request.
func FromRequest(r *http.Request) *domain.User {
	return FromContext(r.Context())
}
