// Package trigger reacts to newly created leads by running the notifier.
//
// Handler is the per-event boundary: it validates the lead, calls the
// notifier and converts anything that goes wrong into a return value.
// Runner feeds it from a lead.Watcher.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/internal/notify"
	"github.com/shutterhouse/leadmail/pkg/logger"
)

var ErrPanic = errors.New("lead handler panicked")

// Notifier is satisfied by *notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, l lead.Lead) (notify.Result, error)
}

// Handler handles one creation event.
type Handler struct {
	notifier Notifier
	logger   *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(n Notifier, opts ...HandlerOption) *Handler {
	h := &Handler{notifier: n, logger: logger.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("trigger"))
	return h
}

// Handle validates ev and notifies. A lead without an email or first name is
// logged and dropped: the result and error are both nil and nothing is sent.
// Delivery failures are inside the Result; the error is reserved for
// configuration problems and recovered panics.
func (h *Handler) Handle(ctx context.Context, ev lead.Created) (res *notify.Result, err error) {
	l := ev.Lead
	if l.ID == "" {
		l.ID = ev.LeadID
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
			h.logger.ErrorContext(ctx, "lead handler panicked", logger.LeadID(l.ID), logger.Error(err))
		}
	}()

	if missing := missingFields(l); len(missing) > 0 {
		h.logger.WarnContext(ctx, "lead rejected",
			logger.LeadID(l.ID),
			slog.String("missing", strings.Join(missing, ",")),
		)
		return nil, nil
	}

	if h.notifier == nil {
		err := fmt.Errorf("%w: trigger has no notifier", notify.ErrNotConfigured)
		h.logger.ErrorContext(ctx, "lead not notified", logger.LeadID(l.ID), logger.Error(err))
		return nil, err
	}

	result, err := h.notifier.Notify(ctx, l)
	if err != nil {
		h.logger.ErrorContext(ctx, "lead not notified", logger.LeadID(l.ID), logger.Error(err))
		return nil, err
	}

	h.logger.InfoContext(ctx, "lead processed",
		logger.LeadID(l.ID),
		slog.Bool("client_sent", result.Client.Success),
		slog.Bool("admin_sent", result.Admin.Success),
		slog.Bool("success", result.Success()),
	)
	return &result, nil
}

func missingFields(l lead.Lead) []string {
	var missing []string
	if strings.TrimSpace(l.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(l.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	return missing
}
