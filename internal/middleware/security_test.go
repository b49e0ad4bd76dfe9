package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func securityHeaders(isSecure bool, method string) *httptest.ResponseRecorder {
	h := NewSecurityHeadersMiddleware(isSecure).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("page"))
		}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, "/dashboard", nil))
	return rec
}

func TestSecurityHeaders_Static(t *testing.T) {
	rec := securityHeaders(true, "GET")

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Cross-Origin-Opener-Policy", "same-origin-allow-popups"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
		{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	}
	for _, tc := range tests {
		if got := rec.Header().Get(tc.header); got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.header, tc.expected, got)
		}
	}
}

func TestSecurityHeaders_NoHSTSInDevelopment(t *testing.T) {
	rec := securityHeaders(false, "GET")

	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("expected no HSTS header in development, got %q", hsts)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("CSP should be set in development too")
	}
}

func TestSecurityHeaders_PassThrough(t *testing.T) {
	for _, method := range []string{"GET", "POST"} {
		rec := securityHeaders(true, method)
		if rec.Code != http.StatusAccepted {
			t.Errorf("%s: status = %d, want 202", method, rec.Code)
		}
		if rec.Body.String() != "page" {
			t.Errorf("%s: body = %q", method, rec.Body.String())
		}
	}
}

func TestSecurityHeaders_CSP(t *testing.T) {
	csp := securityHeaders(true, "GET").Header().Get("Content-Security-Policy")

	for _, directive := range []string{
		"default-src 'self'",
		"script-src 'self' https://accounts.google.com/gsi/client",
		"style-src 'self' 'unsafe-inline' https://accounts.google.com/gsi/style",
		"img-src 'self' data: https:",
		"connect-src 'self' https://accounts.google.com/gsi/",
		"frame-src https://accounts.google.com/gsi/",
		"frame-ancestors 'none'",
		"form-action 'self' https://accounts.google.com",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing %q: %s", directive, csp)
		}
	}

	if strings.Contains(csp, "script-src 'self' 'unsafe-inline'") {
		t.Errorf("inline scripts must stay blocked: %s", csp)
	}
}
