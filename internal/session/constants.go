// Package session stores signed-in organizers between requests.
//
// The browser holds a random token in a cookie; stores only ever see the
// token's SHA-256 hash.
package session

import (
	"net/http"
	"time"
)

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "outreach_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultTTL is how long a session remains valid (24 hours).
	DefaultTTL = 24 * time.Hour

	// TokenBytes is the number of random bytes in a session token.
	// Hex encoding doubles it to 64 characters.
	TokenBytes = 32
)

// SetCookie sets the session cookie on the response.
func SetCookie(w http.ResponseWriter, token string, ttl time.Duration, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1, // Delete immediately
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
