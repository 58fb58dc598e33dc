package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// LeadID records the lead identifier under the key "lead_id".
func LeadID(id string) slog.Attr {
	return slog.String("lead_id", id)
}

// RecipientRole records who a notification is addressed to (client or admin).
func RecipientRole(role string) slog.Attr {
	return slog.String("recipient_role", role)
}

// MessageID records the provider message identifier under the key "message_id".
// An empty id yields an empty Attr so failed sends don't log a blank field.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// Transport records the mail transport name under the key "transport".
func Transport(name string) slog.Attr {
	return slog.String("transport", name)
}

// Recipients records the envelope recipient count.
func Recipients(n int) slog.Attr {
	return slog.Int("recipients", n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
