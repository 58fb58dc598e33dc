package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/internal/notify"
	"github.com/shutterhouse/leadmail/pkg/logger"
)

// Config bounds how events are processed.
type Config struct {
	MaxConcurrent  int           `env:"TRIGGER_MAX_CONCURRENT" envDefault:"8"`
	HandlerTimeout time.Duration `env:"TRIGGER_HANDLER_TIMEOUT" envDefault:"60s"`
}

// checkpointTimeout bounds one checkpoint write.
const checkpointTimeout = 5 * time.Second

// Runner consumes creation events and handles each in its own goroutine.
type Runner struct {
	watcher    lead.Watcher
	handler    *Handler
	cfg        Config
	logger     *slog.Logger
	checkpoint Checkpoint
	onResult   func(lead.Created, *notify.Result, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCheckpoint makes Run resume after the saved token and save progress as
// events finish.
func WithCheckpoint(c Checkpoint) RunnerOption {
	return func(r *Runner) { r.checkpoint = c }
}

// WithOnResult registers a callback invoked after every handled event.
func WithOnResult(fn func(lead.Created, *notify.Result, error)) RunnerOption {
	return func(r *Runner) { r.onResult = fn }
}

func NewRunner(w lead.Watcher, h *Handler, cfg Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		watcher: w,
		handler: h,
		cfg:     cfg,
		logger:  logger.Discard(),
	}
	if r.cfg.MaxConcurrent <= 0 {
		r.cfg.MaxConcurrent = 1
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("trigger_runner"))
	return r
}

// Run handles events until the watcher closes its channel, which it does once
// ctx is done. Every event the watcher delivered is handled before Run
// returns. Handlers are detached from ctx cancellation and only bounded by
// HandlerTimeout, so a shutdown never cuts a send in half.
func (r *Runner) Run(ctx context.Context) error {
	var after string
	if r.checkpoint != nil {
		var err error
		if after, err = r.checkpoint.Load(ctx); err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
	}

	events, err := r.watcher.Watch(ctx, after)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "watching for new leads",
		slog.Int("max_concurrent", r.cfg.MaxConcurrent),
		slog.Bool("resumed", after != ""),
	)

	prog := newProgress(after)
	detached := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.cfg.MaxConcurrent)
	for ev := range events {
		if ctx.Err() != nil {
			r.logger.InfoContext(detached, "finishing accepted lead after shutdown", logger.LeadID(ev.LeadID))
		}
		sem <- struct{}{}
		seq := prog.dispatch()

		wg.Add(1)
		go func(ev lead.Created) {
			defer wg.Done()
			defer func() { <-sem }()
			r.handle(detached, ev)
			r.commit(detached, prog, seq, ev)
		}(ev)
	}
	wg.Wait()
	return nil
}

func (r *Runner) commit(ctx context.Context, prog *progress, seq uint64, ev lead.Created) {
	if !prog.finish(seq, ev.Token) || r.checkpoint == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, checkpointTimeout)
	defer cancel()
	if err := prog.save(ctx, r.checkpoint); err != nil {
		r.logger.WarnContext(ctx, "failed to save checkpoint", logger.LeadID(ev.LeadID), logger.Error(err))
	}
}

func (r *Runner) handle(ctx context.Context, ev lead.Created) {
	if r.cfg.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.HandlerTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.handler.Handle(ctx, ev)
	if err != nil {
		r.logger.ErrorContext(ctx, "lead event failed",
			logger.LeadID(ev.LeadID), logger.Error(err), logger.Duration(time.Since(start)))
	}
	if r.onResult != nil {
		r.onResult(ev, res, err)
	}
}
