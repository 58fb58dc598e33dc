// Package email is the mail transport boundary of the service.
//
// Callers build an Envelope and hand it to a Transport. Exactly one backend is
// chosen at start-up from Config.Transport:
//
//   - smtp     – direct SMTP via gopkg.in/gomail.v2, one session per message
//   - postmark – Postmark transactional API
//   - resend   – Resend HTTP API
//   - dev      – writes HTML and JSON metadata to a local directory
//
// There is no runtime failover between backends and no backend retries.
//
//	tr, err := email.New(cfg)
//	if err != nil {
//	    return err // wraps ErrInvalidConfig
//	}
//	receipt, err := tr.Send(ctx, email.Envelope{
//	    To:      []string{"client@example.com"},
//	    Subject: "Thank You for Your Wedding Photography Inquiry",
//	    HTML:    html,
//	})
//
// Attachments travel base64-encoded in the envelope. Backends that need raw
// bytes (SMTP, Resend) decode them; Postmark receives them as-is.
//
// # Errors
//
//   - ErrInvalidConfig   – missing credentials or unknown backend.
//   - ErrInvalidEnvelope – the envelope is missing To, Subject or HTML, or has a broken attachment.
//   - ErrSendFailed      – the provider rejected the message or could not be reached.
package email
