// Package ai defines the contract between the outreach service and hosted
// generative-text providers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Drafter writes a sponsorship email with a generative-text model.
type Drafter interface {
	// GenerateDraft asks the model to customize the base letter for a sponsor.
	GenerateDraft(ctx context.Context, params DraftParams) (*DraftResult, error)
}

// DraftParams contains parameters for draft generation
type DraftParams struct {
	SponsorName string // Company the letter is addressed to
	BaseLetter  string // Templated letter the model must follow
}

// DraftResult contains the generated email body
type DraftResult struct {
	Text  string    // Plain-text email body
	Usage UsageInfo // Token usage for monitoring
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers.
// Requests are attempted once; there is no retry policy.
type ProviderConfig struct {
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIContentPolicy indicates the prompt or answer was blocked
	EAIContentPolicy = errors.New("ai content blocked by provider policy")

	// EAIEmptyResponse indicates the model returned no text
	EAIEmptyResponse = errors.New("ai provider returned no text")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// ValidateParams rejects requests that cannot produce a useful draft.
func ValidateParams(params DraftParams) error {
	if params.SponsorName == "" {
		return fmt.Errorf("sponsor name is required")
	}
	if params.BaseLetter == "" {
		return fmt.Errorf("base letter is required")
	}
	return nil
}
