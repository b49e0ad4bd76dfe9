package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/outreach/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{APIKey: "sk-test", URL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return p
}

func TestGenerateDraft_Success(t *testing.T) {
	var gotReq apiRequest
	var gotHeaders http.Header

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant",
			"content": [{"type": "text", "text": "Dear Acme Team, try Acme Cloud credits."}],
			"usage": {"input_tokens": 10, "output_tokens": 20}
		}`))
	})

	result, err := p.GenerateDraft(context.Background(), ai.DraftParams{SponsorName: "Acme", BaseLetter: "Dear Acme Team,"})
	require.NoError(t, err)

	assert.Equal(t, "sk-test", gotHeaders.Get("x-api-key"))
	assert.Equal(t, APIVersion, gotHeaders.Get("anthropic-version"))
	assert.Equal(t, DefaultModel, gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content[0].Text, "From Acme, identify:")

	assert.Equal(t, "Dear Acme Team, try Acme Cloud credits.", result.Text)
	assert.Equal(t, 10, result.Usage.InputTokens)
	assert.Equal(t, 20, result.Usage.OutputTokens)
}

func TestGenerateDraft_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ai.EAIUnauthorized},
		{http.StatusTooManyRequests, ai.EAIRateLimit},
		{529, ai.EAIUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"type":"error","error":{"type":"x","message":"nope"}}`))
			})
			_, err := p.GenerateDraft(context.Background(), ai.DraftParams{SponsorName: "Acme", BaseLetter: "x"})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGenerateDraft_NoTextBlocks(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": []}`))
	})

	_, err := p.GenerateDraft(context.Background(), ai.DraftParams{SponsorName: "Acme", BaseLetter: "x"})
	assert.True(t, errors.Is(err, ai.EAIEmptyResponse), "got %v", err)
}
