// Package render turns a lead into the two notification emails: a thank-you
// note for the client and an alert for the studio.
//
// Rendering is pure. The same lead and Renderer always produce the same bytes;
// no clock is read and nothing is cached.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/pkg/email/templates"
)

const (
	notProvided     = "Not provided"
	genericCategory = "Photography"
)

var ErrRender = errors.New("failed to render email")

// Config is the studio branding used in both emails.
type Config struct {
	StudioName string `env:"STUDIO_NAME" envDefault:"Shutter House Photography"`
	Signature  string `env:"STUDIO_SIGNATURE" envDefault:"The Shutter House Team"`
	Timezone   string `env:"STUDIO_TIMEZONE" envDefault:"America/New_York"`
}

// Document is a rendered email.
type Document struct {
	Subject string
	HTML    string
}

// Renderer renders lead emails. The zero value renders in UTC without branding.
type Renderer struct {
	StudioName string
	Signature  string
	Location   *time.Location // used for the admin "Submitted" timestamp
}

// New builds a Renderer from cfg, resolving the timezone.
func New(cfg Config) (*Renderer, error) {
	loc := time.UTC
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("render: unknown timezone %q: %w", tz, err)
		}
	}
	return &Renderer{
		StudioName: strings.TrimSpace(cfg.StudioName),
		Signature:  strings.TrimSpace(cfg.Signature),
		Location:   loc,
	}, nil
}

// EventLabel capitalizes the first letter of eventType and appends
// " Photography". A blank event type yields just "Photography".
func EventLabel(eventType string) string {
	et := capitalize(eventType)
	if et == "" {
		return genericCategory
	}
	return et + " " + genericCategory
}

// Client renders the thank-you email sent to the lead.
func (r *Renderer) Client(l lead.Lead) (Document, error) {
	label := EventLabel(l.EventType)
	d := clientData{
		studio:    r.StudioName,
		signature: r.Signature,
		firstName: strings.TrimSpace(l.FirstName),
		label:     label,
		eventDate: strings.TrimSpace(l.EventDate),
	}
	html, err := templates.Render(context.Background(), layout(r.StudioName, clientBody(d)))
	if err != nil {
		return Document{}, errors.Join(ErrRender, err)
	}
	return Document{
		Subject: "Thank You for Your " + label + " Inquiry",
		HTML:    html,
	}, nil
}

// Admin renders the studio alert for a new lead.
func (r *Renderer) Admin(l lead.Lead) (Document, error) {
	label := EventLabel(l.EventType)

	from := l.FullName()
	if from == "" {
		from = strings.TrimSpace(l.Email)
	}

	d := adminData{
		heading: "New " + label + " Inquiry",
		rows: []row{
			{"Name", orNotProvided(l.FullName())},
			{"Email", orNotProvided(l.Email)},
			{"Phone", orNotProvided(l.Phone)},
			{"Event Type", orNotProvided(capitalize(l.EventType))},
			{"Event Date", orNotProvided(l.EventDate)},
			{"Package", orNotProvided(l.Package)},
			{"Message", orNotProvided(l.Message)},
			{"Submitted", r.submitted(l.CreatedAt)},
		},
		email: strings.TrimSpace(l.Email),
	}
	html, err := templates.Render(context.Background(), layout(r.StudioName, adminBody(d)))
	if err != nil {
		return Document{}, errors.Join(ErrRender, err)
	}

	subject := "New " + label + " Inquiry"
	if from != "" {
		subject += " from " + from
	}
	return Document{Subject: subject, HTML: html}, nil
}

// submitted formats t as an en-US date and time pair, e.g. "6/1/2025 at 2:30:15 PM".
func (r *Renderer) submitted(t time.Time) string {
	if t.IsZero() {
		return notProvided
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return t.Format("1/2/2006") + " at " + t.Format("3:04:05 PM")
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}

func orNotProvided(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return notProvided
	}
	return s
}
