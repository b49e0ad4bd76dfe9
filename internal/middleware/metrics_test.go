package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func metricsEndpoint() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("outreach_http_requests_total 1"))
	})
}

func TestMetricsAuth(t *testing.T) {
	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		wantStatus int
	}{
		{"valid credentials", "prom", "scrape-secret", true, http.StatusOK},
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong username", "grafana", "scrape-secret", true, http.StatusUnauthorized},
		{"wrong password", "prom", "scrape", true, http.StatusUnauthorized},
		{"empty password", "prom", "", true, http.StatusUnauthorized},
	}

	guard := MetricsAuth("prom", "scrape-secret")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()

			guard(metricsEndpoint()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="metrics"` {
					t.Errorf("WWW-Authenticate = %q", got)
				}
				return
			}
			if rec.Body.String() != "outreach_http_requests_total 1" {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestMetricsAuth_DisabledWithoutCredentials(t *testing.T) {
	rec := httptest.NewRecorder()
	MetricsAuth("", "")(metricsEndpoint()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when auth is disabled", rec.Code)
	}
}

func TestMetricsAuth_UsernameOnly(t *testing.T) {
	guard := MetricsAuth("prom", "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.SetBasicAuth("prom", "")
	rec := httptest.NewRecorder()
	guard(metricsEndpoint()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for matching username and empty password", rec.Code)
	}

	rec = httptest.NewRecorder()
	guard(metricsEndpoint()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without a header", rec.Code)
	}
}
