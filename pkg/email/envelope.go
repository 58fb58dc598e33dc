package email

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Envelope is a single outgoing message.
// To, Subject and HTML are required; everything else is optional and falls
// back to the transport's configured defaults.
type Envelope struct {
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	From        string       `json:"from,omitempty"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	Cc          []string     `json:"cc,omitempty"`
	Bcc         []string     `json:"bcc,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Tag         string       `json:"tag,omitempty"` // provider analytics tag
}

// Attachment carries base64-encoded file content.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content"`
}

// Receipt is what a transport returns for an accepted message.
type Receipt struct {
	MessageID string `json:"messageId"`
}

// Decode returns the binary attachment content.
func (a Attachment) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: attachment %q is not valid base64: %v", ErrInvalidEnvelope, a.Filename, err)
	}
	return data, nil
}

// Validate checks that the envelope can be handed to a transport.
// Address syntax is not checked here; the provider is the authority on that.
func (e Envelope) Validate() error {
	if len(e.To) == 0 {
		return fmt.Errorf("%w: To is required", ErrInvalidEnvelope)
	}
	for i, to := range e.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("%w: To[%d] is empty", ErrInvalidEnvelope, i)
		}
	}
	if strings.TrimSpace(e.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidEnvelope)
	}
	if strings.TrimSpace(e.HTML) == "" {
		return fmt.Errorf("%w: HTML is required", ErrInvalidEnvelope)
	}
	for i, a := range e.Attachments {
		if strings.TrimSpace(a.Filename) == "" {
			return fmt.Errorf("%w: Attachments[%d] has no filename", ErrInvalidEnvelope, i)
		}
		if _, err := a.Decode(); err != nil {
			return err
		}
	}
	return nil
}

// withDefaults fills From and ReplyTo from the transport defaults.
func (e Envelope) withDefaults(from, replyTo string) Envelope {
	if strings.TrimSpace(e.From) == "" {
		e.From = from
	}
	if strings.TrimSpace(e.ReplyTo) == "" {
		e.ReplyTo = replyTo
	}
	return e
}
