// Package domain contains core business types and interfaces.
//
// This file defines the signed-in organizer as seen by the rest of the
// application. Users are not persisted; they live only inside a session.
package domain

import (
	"strings"
	"time"
)

// User is an organizer identified by the federated identity provider.
type User struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Subject    string    `json:"sub,omitempty"`     // Provider subject ("sub" claim)
	Picture    string    `json:"picture,omitempty"` // Avatar URL, when the provider sends one
	SignedInAt time.Time `json:"signed_in_at"`
}

// DisplayName returns the name to greet the user with, falling back to the
// local part of their email address.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// SignInParams carries a Google ID token and the claims the browser
// decoded from it.
type SignInParams struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignInResult is a new session for a signed-in user.
type SignInResult struct {
	User      *User
	Token     string // Raw session token; only its hash is stored
	ExpiresAt time.Time
}
