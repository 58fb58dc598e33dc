// Command leadmail stores contact-form leads and emails the client and the
// studio whenever a new lead appears.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shutterhouse/leadmail/internal/api"
	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/internal/notify"
	"github.com/shutterhouse/leadmail/internal/render"
	"github.com/shutterhouse/leadmail/internal/trigger"
	"github.com/shutterhouse/leadmail/pkg/config"
	"github.com/shutterhouse/leadmail/pkg/email"
	"github.com/shutterhouse/leadmail/pkg/httpserver"
	"github.com/shutterhouse/leadmail/pkg/logger"
	"github.com/shutterhouse/leadmail/pkg/mongo"
	"github.com/shutterhouse/leadmail/pkg/redis"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"leadmail"`
	LogLevel    string `env:"LOG_LEVEL"`
	// LeadStore is "mongo" or "memory". Memory also switches the
	// idempotency guard and the attempt log to in-process versions.
	LeadStore string `env:"LEAD_STORE" envDefault:"mongo"`
	// Guard is "redis" or "memory".
	Guard string `env:"IDEMPOTENCY_GUARD" envDefault:"redis"`
}

func main() {
	var app appConfig
	config.MustLoad(&app)

	log := logger.New(
		logger.WithEnvironment(app.Env, app.ServiceName),
		logger.WithLevelName(app.LogLevel),
		logger.WithContextExtractors(api.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, app, log); err != nil {
		log.Error("leadmail stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("leadmail stopped")
}

// backends are the storage pieces chosen by LEAD_STORE and IDEMPOTENCY_GUARD.
type backends struct {
	store interface {
		lead.Store
		lead.Watcher
	}
	attempts   notify.AttemptStore
	checkpoint trigger.Checkpoint
	guard      notify.Guard
	checks     []httpserver.Check
	closers    []func(context.Context) error
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	b := &backends{}
	defer func() {
		for _, c := range b.closers {
			if err := c(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to close backend", logger.Error(err))
			}
		}
	}()
	if err := b.open(ctx, app, log); err != nil {
		return err
	}

	var mailCfg email.Config
	if err := config.Load(&mailCfg); err != nil {
		return fmt.Errorf("mail config: %w", err)
	}
	transport, err := email.New(mailCfg)
	if err != nil {
		return err
	}

	var renderCfg render.Config
	if err := config.Load(&renderCfg); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	renderer, err := render.New(renderCfg)
	if err != nil {
		return err
	}

	var notifyCfg notify.Config
	if err := config.Load(&notifyCfg); err != nil {
		return fmt.Errorf("notify config: %w", err)
	}
	notifier, err := notify.New(notifyCfg, transport, renderer,
		notify.WithLogger(log),
		notify.WithAttemptStore(b.attempts),
		notify.WithGuard(b.guard),
		notify.WithMetrics(notify.NewMetrics(prometheus.DefaultRegisterer)),
	)
	if err != nil {
		return err
	}

	var triggerCfg trigger.Config
	if err := config.Load(&triggerCfg); err != nil {
		return fmt.Errorf("trigger config: %w", err)
	}
	runner := trigger.NewRunner(b.store,
		trigger.NewHandler(notifier, trigger.WithHandlerLogger(log)),
		triggerCfg,
		trigger.WithRunnerLogger(log),
		trigger.WithCheckpoint(b.checkpoint),
	)

	var apiCfg api.Config
	if err := config.Load(&apiCfg); err != nil {
		return fmt.Errorf("api config: %w", err)
	}
	var limitCfg api.RateLimitConfig
	if err := config.Load(&limitCfg); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}
	if apiCfg.APIToken == "" {
		log.Warn("API_TOKEN is empty; /api/v1/emails rejects every request")
	}
	router := api.NewRouter(apiCfg, b.store, notifier,
		api.WithLogger(log),
		api.WithMetrics(api.NewHTTPMetrics(prometheus.DefaultRegisterer), promhttp.Handler()),
		api.WithReadinessChecks(b.checks...),
		api.WithRateLimiter(api.NewRateLimiter(limitCfg)),
	)

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.Info("leadmail starting",
		logger.Transport(transport.Name()),
		slog.String("lead_store", app.LeadStore),
		slog.String("guard", app.Guard),
	)

	// Either component stopping takes the other one down.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() {
		err := runner.Run(ctx)
		if err != nil {
			err = fmt.Errorf("trigger: %w", err)
		}
		cancel()
		errs <- err
	}()
	go func() {
		err := server.Run(ctx, router)
		if err != nil {
			err = fmt.Errorf("http server: %w", err)
		}
		cancel()
		errs <- err
	}()

	return errors.Join(<-errs, <-errs)
}

// open connects the configured backends. Closers registered before a
// failure are still run by the caller.
func (b *backends) open(ctx context.Context, app appConfig, log *slog.Logger) error {
	switch app.LeadStore {
	case "memory":
		b.store = lead.NewMemoryStore(lead.WithLogger(log))
		b.attempts = notify.NewMemoryAttemptStore()
		b.checkpoint = trigger.NewMemoryCheckpoint()
	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return fmt.Errorf("mongo config: %w", err)
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, db.Client().Disconnect)
		b.checks = append(b.checks, mongo.Healthcheck(db.Client()))

		store := lead.NewMongoStore(db, lead.WithLogger(log))
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		attempts := notify.NewMongoAttemptStore(db)
		if err := attempts.EnsureIndexes(ctx); err != nil {
			return err
		}
		b.store, b.attempts = store, attempts
		b.checkpoint = trigger.NewMongoCheckpoint(db, trigger.DefaultCheckpointName)
	default:
		return fmt.Errorf("unknown LEAD_STORE %q", app.LeadStore)
	}

	switch app.Guard {
	case "memory":
		b.guard = notify.NewMemoryGuard()
	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return fmt.Errorf("redis config: %w", err)
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, func(context.Context) error { return client.Close() })
		b.checks = append(b.checks, redis.Healthcheck(client))
		b.guard = notify.NewRedisGuard(client)
	default:
		return fmt.Errorf("unknown IDEMPOTENCY_GUARD %q", app.Guard)
	}

	return nil
}
