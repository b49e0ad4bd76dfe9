package mock

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/outreach/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	DraftResponse *ai.DraftResult
	DraftError    error

	// Call tracking for testing
	DraftCalls int
	LastParams ai.DraftParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// Name identifies the provider in logs and metrics.
func (p *Provider) Name() string {
	return "mock"
}

// GenerateDraft returns the base letter with the generic product bullet
// replaced by a canned, sponsor-specific one.
func (p *Provider) GenerateDraft(ctx context.Context, params ai.DraftParams) (*ai.DraftResult, error) {
	p.mu.Lock()
	p.DraftCalls++
	p.LastParams = params
	resp, respErr := p.DraftResponse, p.DraftError
	p.mu.Unlock()

	if respErr != nil {
		return nil, respErr
	}
	if resp != nil {
		return resp, nil
	}

	if err := ai.ValidateParams(params); err != nil {
		return nil, ai.WrapError("generate draft", err)
	}

	generic := params.SponsorName + "'s tools, APIs, or platform credits"
	specific := params.SponsorName + "'s developer APIs, SDKs, and cloud platform credits"
	text := strings.Replace(params.BaseLetter, generic, specific, 1)

	if p.logger != nil {
		p.logger.Debug("mock AI draft generated", "sponsor", params.SponsorName)
	}

	return &ai.DraftResult{
		Text: text,
		Usage: ai.UsageInfo{
			Model:    "mock",
			Duration: time.Millisecond,
		},
	}, nil
}

// Calls returns the number of GenerateDraft invocations.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.DraftCalls
}

var _ ai.Drafter = (*Provider)(nil)
