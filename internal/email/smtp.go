package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/mail.v2"
)

// =============================================================================
// SMTP Mailer Implementation
// =============================================================================

// sendFunc performs the SMTP exchange. Tests replace it.
type sendFunc func(d *mail.Dialer, m ...*mail.Message) error

// SMTPMailer sends mail with gopkg.in/mail.v2.
type SMTPMailer struct {
	config  SMTPConfig
	timeout time.Duration
	logger  *slog.Logger
	send    sendFunc
}

// NewSMTPMailer creates a mailer for the given server.
func NewSMTPMailer(config SMTPConfig, timeout time.Duration, logger *slog.Logger) *SMTPMailer {
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &SMTPMailer{
		config:  config,
		timeout: timeout,
		logger:  logger,
		send: func(d *mail.Dialer, m ...*mail.Message) error {
			return d.DialAndSend(m...)
		},
	}
}

// Send delivers msg, returning a *SendError on failure.
func (s *SMTPMailer) Send(ctx context.Context, msg Message, creds Credentials) error {
	m := buildMessage(msg)
	d := s.dialer(creds)

	// mail.v2 has no context support; abandon the exchange when ctx ends.
	done := make(chan error, 1)
	go func() {
		done <- s.send(d, m)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		sendErr := classifyDeliveryError(err)
		s.logger.Warn("smtp send failed",
			"host", s.config.Host,
			"to", msg.To,
			"code", sendErr.Code,
			"error", err,
		)
		return sendErr
	}

	s.logger.Info("email sent",
		"host", s.config.Host,
		"from", msg.FromEmail,
		"to", msg.To,
	)
	return nil
}

func (s *SMTPMailer) dialer(creds Credentials) *mail.Dialer {
	d := mail.NewDialer(s.config.Host, s.config.Port, creds.Username, creds.Password)
	d.Timeout = s.timeout
	// NewDialer already switches to implicit TLS on port 465
	d.StartTLSPolicy = mail.MandatoryStartTLS
	return d
}

// buildMessage renders the outgoing message headers and body.
func buildMessage(msg Message) *mail.Message {
	m := mail.NewMessage()
	m.SetAddressHeader("From", msg.FromEmail, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	return m
}

// classifyDeliveryError unwraps mail.v2's SendError before classifying.
func classifyDeliveryError(err error) *SendError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &SendError{Code: CodeSocket, Err: fmt.Errorf("smtp exchange abandoned: %w", err)}
	}

	var mailErr *mail.SendError
	if errors.As(err, &mailErr) && mailErr.Cause != nil {
		return &SendError{Code: classifyCode(mailErr.Cause), Err: err}
	}
	return Classify(err)
}

var _ Mailer = (*SMTPMailer)(nil)
