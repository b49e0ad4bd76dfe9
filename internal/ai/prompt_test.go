package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDraftPrompt(t *testing.T) {
	prompt := BuildDraftPrompt(DraftParams{
		SponsorName: "Acme",
		BaseLetter:  "Dear Acme Team,\nBody",
	})

	assert.Contains(t, prompt, "Dear Acme Team,\nBody")
	assert.Contains(t, prompt, "From Acme, identify:")
	assert.Contains(t, prompt, "Acme's tools, APIs, or services")
	assert.Contains(t, prompt, "plain text only")
	assert.Equal(t, 1, strings.Count(prompt, "Dear Acme Team"))
}

func TestValidateParams(t *testing.T) {
	assert.NoError(t, ValidateParams(DraftParams{SponsorName: "Acme", BaseLetter: "x"}))
	assert.Error(t, ValidateParams(DraftParams{BaseLetter: "x"}))
	assert.Error(t, ValidateParams(DraftParams{SponsorName: "Acme"}))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError("op", nil))

	err := WrapError("generate draft", EAIRateLimit)
	assert.True(t, errors.Is(err, EAIRateLimit))
	assert.Equal(t, "ai generate draft: ai provider rate limit exceeded", err.Error())
}
