package email

import (
	"context"
	"fmt"
	"strings"
)

// Transport delivers a single envelope and reports the provider message id.
// Implementations never retry; a returned error means the message was not accepted.
type Transport interface {
	Name() string
	Send(ctx context.Context, env Envelope) (Receipt, error)
}

// New builds the transport selected by cfg.Transport.
// Selection is static: there is no fallback to another backend at runtime.
func New(cfg Config) (Transport, error) {
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("%w: From is required", ErrInvalidConfig)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case TransportSMTP:
		return NewSMTPTransport(cfg)
	case TransportPostmark:
		return NewPostmarkTransport(cfg)
	case TransportResend:
		return NewResendTransport(cfg)
	case TransportDev:
		return NewDevTransport(cfg.DevDir, cfg.From), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, cfg.Transport)
	}
}
