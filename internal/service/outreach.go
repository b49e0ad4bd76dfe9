package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/outreach/internal/ai"
	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/email"
	"github.com/DukeRupert/outreach/internal/metrics"
	"github.com/DukeRupert/outreach/internal/outreach"
)

// =============================================================================
// Interface Definition
// =============================================================================

// OutreachService drafts and sends sponsorship emails.
type OutreachService interface {
	// Draft produces an email body. AI failures fall back to the templated
	// letter; only a missing sponsor name (domain.EINVALID) or a broken
	// template (domain.EINTERNAL) is returned as an error.
	Draft(ctx context.Context, req domain.DraftRequest) (*domain.Draft, error)

	// Send relays one email through the sender's SMTP account.
	// Returns domain.EINVALID when a required field is missing and
	// domain.EUNAVAILABLE wrapping an *email.SendError on delivery failure.
	Send(ctx context.Context, req domain.SendRequest) error
}

// =============================================================================
// Implementation
// =============================================================================

type outreachService struct {
	event   outreach.Event
	drafter ai.Drafter // nil disables AI drafting
	mailer  email.Mailer
	logger  *slog.Logger
}

// NewOutreachService creates a new OutreachService.
func NewOutreachService(event outreach.Event, drafter ai.Drafter, mailer email.Mailer, logger *slog.Logger) OutreachService {
	return &outreachService{
		event:   event,
		drafter: drafter,
		mailer:  mailer,
		logger:  logger,
	}
}

// providerName labels metrics for drafters that expose a name.
func providerName(d ai.Drafter) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}

// =============================================================================
// Draft
// =============================================================================

func (s *outreachService) Draft(ctx context.Context, req domain.DraftRequest) (*domain.Draft, error) {
	const op = "outreach.draft"

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	letter, err := s.event.Render(outreach.Letter{
		SponsorName:    req.SponsorName,
		SenderName:     req.SenderName,
		SenderPosition: req.SenderPosition,
	})
	if err != nil {
		metrics.DraftsGenerated.WithLabelValues(string(req.Mode()), "error").Inc()
		return nil, domain.Internal(err, op, "Failed to render letter")
	}

	if req.Mode() == domain.DraftModeTemplate {
		metrics.DraftsGenerated.WithLabelValues(string(domain.DraftModeTemplate), "ok").Inc()
		return &domain.Draft{Body: letter, Mode: domain.DraftModeTemplate}, nil
	}

	fallback := &domain.Draft{Body: letter, Mode: domain.DraftModeAI, FellBack: true}

	if s.drafter == nil {
		s.logger.Warn("AI drafting requested but no provider configured", "sponsor", req.SponsorName)
		metrics.AIFallbacks.Inc()
		metrics.DraftsGenerated.WithLabelValues(string(domain.DraftModeAI), "fallback").Inc()
		return fallback, nil
	}

	provider := providerName(s.drafter)
	result, err := s.drafter.GenerateDraft(ctx, ai.DraftParams{
		SponsorName: req.SponsorName,
		BaseLetter:  letter,
	})
	if err != nil {
		metrics.AIAPICalls.WithLabelValues(provider, aiErrorStatus(err)).Inc()
		metrics.AIFallbacks.Inc()
		metrics.DraftsGenerated.WithLabelValues(string(domain.DraftModeAI), "fallback").Inc()
		s.logger.Warn("AI draft failed, using template",
			"provider", provider,
			"sponsor", req.SponsorName,
			"error", err,
		)
		return fallback, nil
	}

	metrics.AIAPICalls.WithLabelValues(provider, "success").Inc()
	metrics.AITokensTotal.WithLabelValues("input").Add(float64(result.Usage.InputTokens))
	metrics.AITokensTotal.WithLabelValues("output").Add(float64(result.Usage.OutputTokens))
	metrics.AIRequestDuration.WithLabelValues(provider).Observe(result.Usage.Duration.Seconds())
	metrics.DraftsGenerated.WithLabelValues(string(domain.DraftModeAI), "ok").Inc()

	s.logger.Info("AI draft generated",
		"provider", provider,
		"sponsor", req.SponsorName,
		"model", result.Usage.Model,
		"duration_ms", result.Usage.Duration.Milliseconds(),
	)

	return &domain.Draft{
		Body:  result.Text,
		Mode:  domain.DraftModeAI,
		Model: result.Usage.Model,
	}, nil
}

// aiErrorStatus buckets provider errors for the ai_api_calls_total metric.
func aiErrorStatus(err error) string {
	switch {
	case errors.Is(err, ai.EAIRateLimit):
		return "rate_limited"
	case errors.Is(err, ai.EAITimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ai.EAIUnauthorized):
		return "unauthorized"
	case errors.Is(err, ai.EAIContentPolicy):
		return "blocked"
	case errors.Is(err, ai.EAIEmptyResponse):
		return "empty"
	case errors.Is(err, ai.EAIUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// =============================================================================
// Send
// =============================================================================

func (s *outreachService) Send(ctx context.Context, req domain.SendRequest) error {
	const op = "outreach.send"

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	body := req.EmailContent
	if strings.TrimSpace(body) == "" {
		letter, err := s.event.Render(outreach.Letter{
			SponsorName:    req.SponsorName,
			SenderName:     req.SenderName,
			SenderPosition: req.SenderPosition,
		})
		if err != nil {
			return domain.Internal(err, op, "Failed to render letter")
		}
		body = letter
	}

	msg := email.Message{
		FromName:  req.SenderName,
		FromEmail: req.SenderEmail,
		To:        req.SponsorEmail,
		Subject:   s.event.Subject(req.SponsorName),
		TextBody:  body,
	}
	creds := email.Credentials{
		Username: req.SenderEmail,
		Password: req.SenderPassword,
	}

	if err := s.mailer.Send(ctx, msg, creds); err != nil {
		sendErr := email.Classify(err)
		metrics.EmailsSent.WithLabelValues(sendErr.Code).Inc()
		return domain.Unavailable(sendErr, op, sendErr.UserMessage())
	}

	metrics.EmailsSent.WithLabelValues("sent").Inc()
	s.logger.Info("sponsorship email sent",
		"sponsor", req.SponsorName,
		"to", req.SponsorEmail,
		"from", req.SenderEmail,
	)
	return nil
}
