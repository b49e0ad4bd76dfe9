package domain

import (
	"net/mail"
	"strings"
)

// DraftMode selects how an outreach email body is produced.
type DraftMode string

const (
	DraftModeTemplate DraftMode = "template" // Local string interpolation
	DraftModeAI       DraftMode = "ai"       // Hosted generative-text API
)

// Valid checks if the draft mode is known.
func (m DraftMode) Valid() bool {
	switch m {
	case DraftModeTemplate, DraftModeAI:
		return true
	default:
		return false
	}
}

// DraftRequest asks for a sponsorship email body.
type DraftRequest struct {
	SponsorName    string `json:"sponsorName"`
	SenderName     string `json:"senderName"`
	SenderPosition string `json:"senderPosition"`
	UseAI          bool   `json:"useAI"`
}

// Mode returns the generation mode implied by UseAI.
func (r DraftRequest) Mode() DraftMode {
	if r.UseAI {
		return DraftModeAI
	}
	return DraftModeTemplate
}

// Normalize trims whitespace from every field.
func (r DraftRequest) Normalize() DraftRequest {
	r.SponsorName = strings.TrimSpace(r.SponsorName)
	r.SenderName = strings.TrimSpace(r.SenderName)
	r.SenderPosition = strings.TrimSpace(r.SenderPosition)
	return r
}

// Validate requires a sponsor name. Sender fields fall back to template
// defaults when empty.
func (r DraftRequest) Validate() error {
	if strings.TrimSpace(r.SponsorName) == "" {
		return NewValidationError("outreach.draft", "sponsorName", "Sponsor name required")
	}
	return nil
}

// Draft is a generated email body the organizer may edit before sending.
type Draft struct {
	Body string
	Mode DraftMode
	// FellBack is true when AI generation failed and the template was used.
	FellBack bool
	Model    string
}

// SendRequest carries one outgoing sponsorship email and the SMTP
// credentials to send it with.
type SendRequest struct {
	SponsorName    string `json:"sponsorName"`
	SponsorEmail   string `json:"sponsorEmail"`
	SenderName     string `json:"senderName"`
	SenderPosition string `json:"senderPosition"`
	SenderEmail    string `json:"senderEmail"`
	SenderPassword string `json:"senderPassword"`
	EmailContent   string `json:"emailContent"`
}

// Normalize trims whitespace from every field except the password and body.
func (r SendRequest) Normalize() SendRequest {
	r.SponsorName = strings.TrimSpace(r.SponsorName)
	r.SponsorEmail = strings.TrimSpace(r.SponsorEmail)
	r.SenderName = strings.TrimSpace(r.SenderName)
	r.SenderPosition = strings.TrimSpace(r.SenderPosition)
	r.SenderEmail = strings.TrimSpace(r.SenderEmail)
	return r
}

// Validate checks that every identity and credential field is present.
// The body may be empty; the sender then falls back to the template.
func (r SendRequest) Validate() error {
	required := []struct {
		field string
		value string
		label string
	}{
		{"sponsorName", r.SponsorName, "Sponsor name"},
		{"sponsorEmail", r.SponsorEmail, "Sponsor email"},
		{"senderName", r.SenderName, "Sender name"},
		{"senderPosition", r.SenderPosition, "Sender position"},
		{"senderEmail", r.SenderEmail, "Sender email"},
		{"senderPassword", r.SenderPassword, "Sender password"},
	}

	ve := &ValidationError{Op: "outreach.send"}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			ve.Add(f.field, f.label+" is required")
		}
	}
	return ve.OrNil()
}

// ValidateForm is Validate plus the checks the dashboard form enforces:
// well-formed addresses and a non-empty draft.
func (r SendRequest) ValidateForm() error {
	ve := &ValidationError{Op: "outreach.send"}
	if err := r.Validate(); err != nil {
		ve = err.(*ValidationError)
	}

	if r.SponsorEmail != "" && !IsValidEmail(r.SponsorEmail) {
		ve.Add("sponsorEmail", "Enter a valid sponsor email address")
	}
	if r.SenderEmail != "" && !IsValidEmail(r.SenderEmail) {
		ve.Add("senderEmail", "Enter a valid sender email address")
	}
	if strings.TrimSpace(r.EmailContent) == "" {
		ve.Add("emailContent", "Please generate or preview an email first")
	}
	return ve.OrNil()
}

// IsValidEmail reports whether s is a bare address such as a@b.co.
// Display-name forms ("Name <a@b.co>") are rejected.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
