package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevTransport writes each message to disk as HTML plus JSON metadata
// instead of delivering it. Used for local development.
type DevTransport struct {
	dir  string
	from string
	now  func() time.Time
}

// NewDevTransport creates a development transport writing into dir.
// The directory is created on first send.
func NewDevTransport(dir, from string) *DevTransport {
	return &DevTransport{dir: dir, from: from, now: time.Now}
}

type devMetadata struct {
	MessageID   string   `json:"message_id"`
	Timestamp   string   `json:"timestamp"`
	From        string   `json:"from"`
	To          []string `json:"to"`
	Cc          []string `json:"cc,omitempty"`
	Bcc         []string `json:"bcc,omitempty"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	Subject     string   `json:"subject"`
	Tag         string   `json:"tag,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

func (d *DevTransport) Name() string { return TransportDev }

// Send saves the envelope. The base filename is returned as the message id.
func (d *DevTransport) Send(ctx context.Context, env Envelope) (Receipt, error) {
	if err := env.Validate(); err != nil {
		return Receipt{}, err
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	env = env.withDefaults(d.from, "")

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err)
	}

	now := d.now()
	identifier := env.Tag
	if identifier == "" {
		identifier = env.Subject
	}
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405.000000"), sanitizeFilename(identifier))

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(env.HTML), 0o644); err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to write HTML file: %v", ErrSendFailed, err)
	}

	meta := devMetadata{
		MessageID: base,
		Timestamp: now.Format(time.RFC3339),
		From:      env.From,
		To:        env.To,
		Cc:        env.Cc,
		Bcc:       env.Bcc,
		ReplyTo:   env.ReplyTo,
		Subject:   env.Subject,
		Tag:       env.Tag,
	}
	for _, a := range env.Attachments {
		meta.Attachments = append(meta.Attachments, a.Filename)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), data, 0o644); err != nil {
		return Receipt{}, fmt.Errorf("%w: failed to write JSON file: %v", ErrSendFailed, err)
	}

	return Receipt{MessageID: base}, nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename keeps [a-zA-Z0-9-_.], maps spaces to underscores and caps the length.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
