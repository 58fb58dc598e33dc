package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"
)

type postmarkTransport struct {
	client  *postmark.Client
	from    string
	replyTo string
}

// NewPostmarkTransport creates a transport backed by Postmark's transactional API.
func NewPostmarkTransport(cfg Config) (Transport, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("%w: From is required", ErrInvalidConfig)
	}

	return &postmarkTransport{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
	}, nil
}

func (t *postmarkTransport) Name() string { return TransportPostmark }

// Send submits the envelope. Opens are tracked and links rewritten in the
// HTML part only.
func (t *postmarkTransport) Send(ctx context.Context, env Envelope) (Receipt, error) {
	if err := env.Validate(); err != nil {
		return Receipt{}, err
	}

	resp, err := t.client.SendEmail(ctx, postmarkEmail(env.withDefaults(t.from, t.replyTo)))
	if err != nil {
		return Receipt{}, errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return Receipt{}, errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return Receipt{MessageID: resp.MessageID}, nil
}

// postmarkEmail maps the envelope onto Postmark's schema. Postmark takes
// attachment content as base64, so it is passed through unchanged.
func postmarkEmail(env Envelope) postmark.Email {
	msg := postmark.Email{
		From:       env.From,
		To:         strings.Join(env.To, ","),
		Cc:         strings.Join(env.Cc, ","),
		Bcc:        strings.Join(env.Bcc, ","),
		ReplyTo:    env.ReplyTo,
		Subject:    env.Subject,
		Tag:        env.Tag,
		HTMLBody:   env.HTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	}
	for _, a := range env.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		msg.Attachments = append(msg.Attachments, postmark.Attachment{
			Name:        a.Filename,
			Content:     strings.TrimSpace(a.Content),
			ContentType: ct,
		})
	}
	return msg
}
