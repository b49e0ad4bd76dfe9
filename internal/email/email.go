// Package email relays sponsorship letters through the organizer's own
// SMTP account.
//
// Every send opens a fresh authenticated session with the credentials the
// organizer typed into the form. Nothing is queued and nothing is retried.
package email

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Mailer sends a single message on behalf of a sender.
type Mailer interface {
	Send(ctx context.Context, msg Message, creds Credentials) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Message is one plain-text email.
type Message struct {
	FromName  string // Display name in the From header
	FromEmail string // Sender address; also the SMTP username
	To        string // Recipient address
	Subject   string
	TextBody  string
}

// Credentials authenticate the SMTP session.
type Credentials struct {
	Username string
	Password string // For Gmail this is an App Password
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host string // SMTP server hostname (e.g., "smtp.gmail.com")
	Port int    // SMTP server port (587 for STARTTLS)
}

const (
	// DefaultHost is Gmail's submission server.
	DefaultHost = "smtp.gmail.com"

	// DefaultPort is the STARTTLS submission port.
	DefaultPort = 587
)

// =============================================================================
// Error Classification
// =============================================================================

// Send failure codes returned to API clients.
const (
	CodeAuth    = "EAUTH"
	CodeSocket  = "ESOCKET"
	CodeUnknown = "EUNKNOWN"
)

// SendError is a classified delivery failure.
type SendError struct {
	Code string
	Err  error
}

func (e *SendError) Error() string {
	return "email " + e.Code + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the organizer for this failure.
func (e *SendError) UserMessage() string {
	switch e.Code {
	case CodeAuth:
		return "Authentication failed. Check your email and password. For Gmail, use an App Password."
	case CodeSocket:
		return "Network error. Check your internet connection."
	default:
		return "Failed to send email"
	}
}

// Classify wraps err in a SendError with the best matching code.
func Classify(err error) *SendError {
	if err == nil {
		return nil
	}

	var se *SendError
	if errors.As(err, &se) {
		return se
	}

	return &SendError{Code: classifyCode(err), Err: err}
}

func classifyCode(err error) string {
	// 530 auth required, 534 web login required, 535 bad credentials
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return CodeAuth
		}
		return CodeUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CodeSocket
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authenticat"), strings.Contains(msg, "username and password not accepted"):
		return CodeAuth
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "broken pipe"):
		return CodeSocket
	}
	return CodeUnknown
}
