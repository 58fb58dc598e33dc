package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type smtpTransport struct {
	dialer  *gomail.Dialer
	from    string
	replyTo string
}

// NewSMTPTransport creates a transport that opens one authenticated SMTP
// session per message and closes it afterwards. Sessions are never reused.
func NewSMTPTransport(cfg Config) (Transport, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if cfg.SMTPPort <= 0 {
		return nil, fmt.Errorf("%w: SMTPPort must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("%w: From is required", ErrInvalidConfig)
	}

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.SSL = cfg.SMTPSSL
	if cfg.SMTPLocalName != "" {
		d.LocalName = cfg.SMTPLocalName
	}

	return &smtpTransport{
		dialer:  d,
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
	}, nil
}

func (t *smtpTransport) Name() string { return TransportSMTP }

// Send dials, delivers and hangs up. gomail has no context support, so the
// call runs in its own goroutine and is abandoned when ctx expires; the
// session then finishes or times out on its own (gomail dials with a 10s limit).
func (t *smtpTransport) Send(ctx context.Context, env Envelope) (Receipt, error) {
	if err := env.Validate(); err != nil {
		return Receipt{}, err
	}

	msg, messageID, err := t.buildMessage(env.withDefaults(t.from, t.replyTo))
	if err != nil {
		return Receipt{}, err
	}

	done := make(chan error, 1)
	go func() { done <- t.dialer.DialAndSend(msg) }()

	select {
	case <-ctx.Done():
		return Receipt{}, errors.Join(ErrSendFailed, ctx.Err())
	case err := <-done:
		if err != nil {
			return Receipt{}, errors.Join(ErrSendFailed, err)
		}
	}

	return Receipt{MessageID: messageID}, nil
}

// buildMessage converts the envelope into a MIME message with a generated
// Message-ID, which doubles as the receipt id since SMTP returns none.
func (t *smtpTransport) buildMessage(env Envelope) (*gomail.Message, string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(env.From))

	m := gomail.NewMessage()
	m.SetHeader("From", env.From)
	m.SetHeader("To", env.To...)
	if len(env.Cc) > 0 {
		m.SetHeader("Cc", env.Cc...)
	}
	if len(env.Bcc) > 0 {
		m.SetHeader("Bcc", env.Bcc...)
	}
	if env.ReplyTo != "" {
		m.SetHeader("Reply-To", env.ReplyTo)
	}
	m.SetHeader("Subject", env.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetBody("text/html", env.HTML)

	for _, a := range env.Attachments {
		data, err := a.Decode()
		if err != nil {
			return nil, "", err
		}
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}

	return m, messageID, nil
}

// senderDomain returns the domain part of the From address for Message-ID generation.
func senderDomain(from string) string {
	addr := from
	if parsed, err := mail.ParseAddress(from); err == nil {
		addr = parsed.Address
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
