package notify

import (
	"fmt"
	"strings"
	"time"
)

// Config is resolved once at start-up and never changes afterwards.
type Config struct {
	// AdminRecipients is the fixed studio distribution list for lead alerts.
	AdminRecipients []string `env:"ADMIN_RECIPIENTS,required" envSeparator:","`
	// ContactFormRecipient replaces the recipients of any alert whose
	// subject contains ContactFormSubject. Empty means the first admin recipient.
	ContactFormRecipient string        `env:"CONTACT_FORM_RECIPIENT"`
	SendTimeout          time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"15s"`
	IdempotencyTTL       time.Duration `env:"NOTIFY_IDEMPOTENCY_TTL" envDefault:"168h"`
}

func (c Config) validate() error {
	n := 0
	for _, r := range c.AdminRecipients {
		if strings.TrimSpace(r) != "" {
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("%w: no admin recipients", ErrNotConfigured)
	}
	return nil
}

// adminRecipients returns the trimmed, non-empty admin addresses.
func (c Config) adminRecipients() []string {
	out := make([]string, 0, len(c.AdminRecipients))
	for _, r := range c.AdminRecipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
