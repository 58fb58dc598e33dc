package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type resendTransport struct {
	client  *resend.Client
	from    string
	replyTo string
}

// NewResendTransport creates a transport backed by the Resend HTTP API.
func NewResendTransport(cfg Config) (Transport, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("%w: ResendAPIKey is required", ErrInvalidConfig)
	}
	return &resendTransport{
		client:  resend.NewClient(cfg.ResendAPIKey),
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
	}, nil
}

func (t *resendTransport) Name() string { return TransportResend }

func (t *resendTransport) Send(ctx context.Context, env Envelope) (Receipt, error) {
	if err := env.Validate(); err != nil {
		return Receipt{}, err
	}

	req, err := resendRequest(env.withDefaults(t.from, t.replyTo))
	if err != nil {
		return Receipt{}, err
	}

	sent, err := t.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return Receipt{}, errors.Join(ErrSendFailed, err)
	}
	return Receipt{MessageID: sent.Id}, nil
}

// resendRequest maps the envelope onto Resend's schema.
// Attachments are decoded to binary; the SDK handles the wire encoding.
func resendRequest(env Envelope) (*resend.SendEmailRequest, error) {
	req := &resend.SendEmailRequest{
		From:    env.From,
		To:      env.To,
		Cc:      env.Cc,
		Bcc:     env.Bcc,
		Subject: env.Subject,
		Html:    env.HTML,
		ReplyTo: env.ReplyTo,
	}
	if env.Tag != "" {
		req.Tags = []resend.Tag{{Name: "category", Value: env.Tag}}
	}
	for _, a := range env.Attachments {
		data, err := a.Decode()
		if err != nil {
			return nil, err
		}
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     data,
			ContentType: a.ContentType,
		})
	}
	return req, nil
}
