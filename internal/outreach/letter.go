// Package outreach renders the templated sponsorship letter used when AI
// generation is off or fails, and the subject line of every outgoing email.
package outreach

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

const (
	// DefaultSenderName is used when the organizer leaves their name blank.
	DefaultSenderName = "Hello World Team"

	// DefaultSenderPosition is used when the organizer leaves their position blank.
	DefaultSenderPosition = "Organizer"
)

//go:embed letter.txt
var letterSource string

var letterTemplate = template.Must(template.New("letter").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(letterSource))

// Event holds the facts about the hackathon that appear in every letter.
type Event struct {
	Name     string
	Year     int
	Host     string
	Tagline  string
	Audience string
	Headline string // Subject line prefix
	Timeline []string
}

// DefaultEvent returns the 2025 Hello World hackathon at Purdue.
func DefaultEvent() Event {
	return Event{
		Name:     "Hello World",
		Year:     2025,
		Host:     "Purdue University",
		Tagline:  "Midwest’s largest beginner-friendly hackathon",
		Audience: "800+",
		Headline: "Biggest 24 hour hackathon in the Midwest",
		Timeline: []string{
			"March – May 2025 – Sponsorship outreach and planning",
			"June – August 2025 – Promotion, logistics, and partnerships finalized",
			"September 27–29 – Hackathon launch and execution",
		},
	}
}

// Letter identifies the sponsor and sender a letter is written for.
type Letter struct {
	SponsorName    string
	SenderName     string
	SenderPosition string
}

// withDefaults fills blank sender fields.
func (l Letter) withDefaults() Letter {
	l.SponsorName = strings.TrimSpace(l.SponsorName)
	l.SenderName = strings.TrimSpace(l.SenderName)
	l.SenderPosition = strings.TrimSpace(l.SenderPosition)
	if l.SenderName == "" {
		l.SenderName = DefaultSenderName
	}
	if l.SenderPosition == "" {
		l.SenderPosition = DefaultSenderPosition
	}
	return l
}

// Article picks "an" for organizers and "the" for every other position,
// as in "I am an Organizer" / "I am the Director of Sponsorship".
func Article(position string) string {
	if strings.ToLower(strings.TrimSpace(position)) == "organizer" {
		return "an"
	}
	return "the"
}

// Render interpolates the letter for the given sponsor and sender.
func (e Event) Render(l Letter) (string, error) {
	l = l.withDefaults()

	data := struct {
		Letter
		Article string
		Event   Event
	}{
		Letter:  l,
		Article: Article(l.SenderPosition),
		Event:   e,
	}

	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render letter: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the subject line of an outreach email to sponsorName.
func (e Event) Subject(sponsorName string) string {
	return fmt.Sprintf("%s - Sponsorship Opportunity for %s", e.Headline, strings.TrimSpace(sponsorName))
}
