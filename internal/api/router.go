// Package api exposes the HTTP surface: the public lead intake, an
// authenticated generic send endpoint, and health and metrics endpoints.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/pkg/httpserver"
	"github.com/shutterhouse/leadmail/pkg/logger"
)

// Config holds the API settings.
type Config struct {
	APIToken       string   `env:"API_TOKEN"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type handlers struct {
	leads  lead.Store
	sender Sender
	logger *slog.Logger
}

type routerOptions struct {
	logger  *slog.Logger
	metrics *HTTPMetrics
	scrape  http.Handler
	checks  []httpserver.Check
	limiter *RateLimiter
}

// Option configures the router.
type Option func(*routerOptions)

func WithLogger(l *slog.Logger) Option {
	return func(o *routerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics instruments every route and serves scrape on /metrics.
func WithMetrics(m *HTTPMetrics, scrape http.Handler) Option {
	return func(o *routerOptions) {
		o.metrics = m
		o.scrape = scrape
	}
}

// WithReadinessChecks adds dependencies checked by /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(o *routerOptions) { o.checks = append(o.checks, checks...) }
}

// WithRateLimiter throttles the public lead intake per client IP.
func WithRateLimiter(l *RateLimiter) Option {
	return func(o *routerOptions) { o.limiter = l }
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config, leads lead.Store, sender Sender, opts ...Option) http.Handler {
	o := routerOptions{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	h := &handlers{
		leads:  leads,
		sender: sender,
		logger: o.logger.With(logger.Component("api")),
	}

	r := chi.NewRouter()
	r.Use(RequestIDs)
	r.Use(middleware.Recoverer)
	if o.metrics != nil {
		r.Use(o.metrics.Middleware)
	}

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(o.logger, o.checks...))
	if o.scrape != nil {
		r.Method(http.MethodGet, "/metrics", o.scrape)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.AllowedOrigins,
				AllowedMethods: []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
				ExposedHeaders: []string{RequestIDHeader},
				MaxAge:         300,
			}))
			r.With(o.limiter.Middleware).Post("/leads", h.createLead)
			r.Options("/leads", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
		})

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(cfg.APIToken))
			r.Post("/emails", h.sendEmail)
		})
	})

	return r
}
