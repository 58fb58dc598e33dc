// Package notify turns a lead into two emails and delivers them.
//
// Notify renders the client thank-you and the studio alert and sends them
// concurrently through one email.Transport. Each send stands alone: a failure
// on one side never stops the other, and neither is retried. Outcomes are
// logged, stored as Attempts and counted in Prometheus. A Guard keyed by
// lead and role suppresses repeat sends when a creation event is redelivered.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/internal/render"
	"github.com/shutterhouse/leadmail/pkg/async"
	"github.com/shutterhouse/leadmail/pkg/email"
	"github.com/shutterhouse/leadmail/pkg/logger"
)

// Renderer produces the two lead documents. *render.Renderer implements it.
type Renderer interface {
	Client(l lead.Lead) (render.Document, error)
	Admin(l lead.Lead) (render.Document, error)
}

// Notifier delivers lead notifications. It is safe for concurrent use.
type Notifier struct {
	cfg       Config
	transport email.Transport
	renderer  Renderer
	rules     []Rule
	attempts  AttemptStore
	guard     Guard
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithAttemptStore persists every outcome to s.
func WithAttemptStore(s AttemptStore) Option {
	return func(n *Notifier) { n.attempts = s }
}

// WithGuard enables duplicate suppression for Notify.
func WithGuard(g Guard) Option {
	return func(n *Notifier) { n.guard = g }
}

// WithRules replaces the default routing table. An empty list disables routing.
func WithRules(rules ...Rule) Option {
	return func(n *Notifier) { n.rules = slices.Clone(rules) }
}

func WithMetrics(m *Metrics) Option {
	return func(n *Notifier) {
		if m != nil {
			n.metrics = m
		}
	}
}

// WithClock sets the clock used for attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New validates cfg and its collaborators and returns a Notifier.
// Any missing piece is reported as ErrNotConfigured.
func New(cfg Config, transport email.Transport, renderer Renderer, opts ...Option) (*Notifier, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is nil", ErrNotConfigured)
	}
	if renderer == nil {
		return nil, fmt.Errorf("%w: renderer is nil", ErrNotConfigured)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.AdminRecipients = cfg.adminRecipients()

	n := &Notifier{
		cfg:       cfg,
		transport: transport,
		renderer:  renderer,
		rules:     DefaultRules(cfg),
		metrics:   NewMetrics(nil),
		logger:    logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logger.Component("notifier"), logger.Transport(transport.Name()))
	return n, nil
}

// job is one role's half of a lead notification.
type job struct {
	leadID string
	role   Role
	env    email.Envelope
	err    error // render failure; nothing is sent
}

// Notify sends the client and admin notifications for l and waits for both.
// The error is non-nil only when the Notifier itself is unusable.
func (n *Notifier) Notify(ctx context.Context, l lead.Lead) (Result, error) {
	if n == nil || n.transport == nil || n.renderer == nil {
		return Result{}, ErrNotConfigured
	}

	jobs := []job{n.clientJob(l), n.adminJob(l)}

	futures := make([]*async.Future[SendResult], len(jobs))
	for i, j := range jobs {
		futures[i] = async.Async(ctx, j, n.deliver)
	}

	res := Result{LeadID: l.ID}
	for i, o := range async.Settle(futures...) {
		sr := o.Value
		if o.Err != nil {
			// deliver never fails; this is a recovered panic or a
			// context that ended before the send began.
			sr = SendResult{Error: o.Err.Error()}
			n.finish(ctx, jobs[i], sr, "", 0)
		}
		switch jobs[i].role {
		case RoleClient:
			res.Client = sr
		case RoleAdmin:
			res.Admin = sr
		}
	}
	return res, nil
}

func (n *Notifier) clientJob(l lead.Lead) job {
	j := job{leadID: l.ID, role: RoleClient}
	doc, err := n.renderer.Client(l)
	if err != nil {
		j.err = err
		return j
	}
	j.env = email.Envelope{
		To:      []string{strings.TrimSpace(l.Email)},
		Subject: doc.Subject,
		HTML:    doc.HTML,
		Tag:     "lead-client",
	}
	return j
}

func (n *Notifier) adminJob(l lead.Lead) job {
	j := job{leadID: l.ID, role: RoleAdmin}
	doc, err := n.renderer.Admin(l)
	if err != nil {
		j.err = err
		return j
	}
	j.env = email.Envelope{
		To:      slices.Clone(n.cfg.AdminRecipients),
		ReplyTo: strings.TrimSpace(l.Email),
		Subject: doc.Subject,
		HTML:    doc.HTML,
		Tag:     "lead-admin",
	}
	return j
}

// deliver runs one job behind the idempotency guard.
func (n *Notifier) deliver(ctx context.Context, j job) (SendResult, error) {
	if j.err != nil {
		sr := SendResult{Error: j.err.Error()}
		n.finish(ctx, j, sr, "", 0)
		return sr, nil
	}

	key := guardKey(j.leadID, j.role)
	claimed := false
	if n.guard != nil && j.leadID != "" {
		ok, err := n.guard.Claim(ctx, key, n.cfg.IdempotencyTTL)
		switch {
		case err != nil:
			n.logger.WarnContext(ctx, "idempotency guard failed, sending anyway",
				logger.LeadID(j.leadID), logger.RecipientRole(string(j.role)), logger.Error(err))
		case !ok:
			sr := SendResult{Skipped: true}
			n.finish(ctx, j, sr, "", 0)
			return sr, nil
		default:
			claimed = true
		}
	}

	start := time.Now()
	// Rules match on subject text, and the client subject carries lead
	// input, so only the studio alert is routed.
	env, rule := j.env, ""
	if j.role == RoleAdmin {
		env, rule = route(n.rules, j.env)
	}
	j.env = env
	sr := n.send(ctx, env)
	elapsed := time.Since(start)

	if !sr.Success && claimed {
		if err := n.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			n.logger.WarnContext(ctx, "failed to release idempotency claim",
				logger.LeadID(j.leadID), logger.RecipientRole(string(j.role)), logger.Error(err))
		}
	}

	n.finish(ctx, j, sr, rule, elapsed)
	return sr, nil
}

// Send delivers an arbitrary envelope: the entry point for transactional
// mail outside the lead flow. Routing rules and the send timeout apply; the
// idempotency guard does not.
func (n *Notifier) Send(ctx context.Context, env email.Envelope) SendResult {
	if n == nil || n.transport == nil {
		return SendResult{Error: ErrNotConfigured.Error()}
	}

	start := time.Now()
	routed, rule := route(n.rules, env)
	sr := n.send(ctx, routed)
	n.finish(ctx, job{role: RoleDirect, env: routed}, sr, rule, time.Since(start))
	return sr
}

// send calls the transport with the per-send timeout. Errors and panics are
// folded into the result.
func (n *Notifier) send(ctx context.Context, env email.Envelope) (sr SendResult) {
	defer func() {
		if r := recover(); r != nil {
			sr = SendResult{Error: fmt.Sprintf("%v: transport panicked: %v", email.ErrSendFailed, r)}
		}
	}()

	if err := env.Validate(); err != nil {
		return SendResult{Error: err.Error()}
	}

	if n.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.SendTimeout)
		defer cancel()
	}

	receipt, err := n.transport.Send(ctx, env)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) && !strings.Contains(msg, "timeout") {
			msg += " (send timeout)"
		}
		return SendResult{Error: msg}
	}
	return SendResult{Success: true, MessageID: receipt.MessageID}
}

// finish logs, audits and counts one outcome.
func (n *Notifier) finish(ctx context.Context, j job, sr SendResult, rule string, elapsed time.Duration) {
	status := sr.status()
	attrs := []any{
		logger.LeadID(j.leadID),
		logger.RecipientRole(string(j.role)),
		logger.Recipients(len(j.env.To)),
	}
	if rule != "" {
		attrs = append(attrs, slog.String("rule", rule))
	}

	switch status {
	case StatusSent:
		n.logger.InfoContext(ctx, "notification sent",
			append(attrs, logger.MessageID(sr.MessageID), logger.Duration(elapsed))...)
	case StatusSkipped:
		n.logger.InfoContext(ctx, "notification already delivered, skipping", attrs...)
	default:
		n.logger.ErrorContext(ctx, "notification failed",
			append(attrs, slog.String("error", sr.Error), logger.Duration(elapsed))...)
	}

	n.metrics.record(j.role, status)
	if status != StatusSkipped && elapsed > 0 {
		n.metrics.observe(n.transport.Name(), elapsed)
	}

	if n.attempts == nil {
		return
	}
	a := Attempt{
		ID:                uuid.NewString(),
		LeadID:            j.leadID,
		Role:              j.role,
		Status:            status,
		Recipients:        j.env.To,
		Subject:           j.env.Subject,
		Rule:              rule,
		ProviderMessageID: sr.MessageID,
		ErrorDetail:       sr.Error,
		Transport:         n.transport.Name(),
		CreatedAt:         n.now().UTC(),
	}
	if err := n.attempts.Record(context.WithoutCancel(ctx), a); err != nil {
		n.logger.WarnContext(ctx, "failed to record notification attempt",
			logger.LeadID(j.leadID), logger.RecipientRole(string(j.role)), logger.Error(err))
	}
}
