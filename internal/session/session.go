package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/DukeRupert/outreach/internal/domain"
)

// ErrNotFound is returned when no live session matches a token hash.
var ErrNotFound = errors.New("session not found")

// Session is a signed-in organizer.
type Session struct {
	TokenHash string      `json:"token_hash"`
	User      domain.User `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Store persists sessions keyed by token hash.
type Store interface {
	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, s *Session) error

	// Get returns the session for the hash or ErrNotFound.
	Get(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, tokenHash string) error
}

// GenerateToken creates a cryptographically secure session token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 of a raw token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidTokenFormat reports whether token looks like a GenerateToken value.
func ValidTokenFormat(token string) bool {
	if len(token) != TokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
