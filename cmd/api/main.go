// Package main is the entrypoint for the expense tracker API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/exptrack/exptrack/internal/auth"
	"github.com/exptrack/exptrack/internal/cache"
	"github.com/exptrack/exptrack/internal/config"
	"github.com/exptrack/exptrack/internal/handler"
	"github.com/exptrack/exptrack/internal/logging"
	"github.com/exptrack/exptrack/internal/metrics"
	"github.com/exptrack/exptrack/internal/middleware"
	"github.com/exptrack/exptrack/internal/notify"
	"github.com/exptrack/exptrack/internal/repository"
	"github.com/exptrack/exptrack/internal/server"
	"github.com/exptrack/exptrack/internal/service"
)

// welcomeTimeout bounds one detached welcome notification.
const welcomeTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.MigrateOnStart {
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrations failed: %s", logging.SanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", logging.SanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", logging.RedactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", logging.SanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", logging.RedactURL(cfg.RedisURL)),
		)
		return errors.New("redis unavailable")
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	metricsRecorder := metrics.NewInMemory()

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(notifier, logger, metricsRecorder, welcomeTimeout)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	authService := service.NewAuthService(repo, tokens, dispatcher, metricsRecorder)
	categoryService := service.NewCategoryService(repo, metricsRecorder)
	expenseService := service.NewExpenseService(repo, repo, metricsRecorder)

	r := setupRouter(routes{
		root:       handler.New(),
		health:     handler.NewHealthHandler(repo, cacheClient, logger),
		metrics:    handler.NewMetricsHandler(metricsRecorder),
		auth:       handler.NewAuthHandler(authService, logger),
		categories: handler.NewCategoryHandler(categoryService, logger),
		expenses:   handler.NewExpenseHandler(expenseService, logger),
	}, tokens, cacheClient, metricsRecorder, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first so the queue connection outlives pending sends.
	srv.OnShutdown("notifier", func(ctx context.Context) error {
		return closeNotifier()
	})
	srv.OnShutdown("welcome dispatcher", dispatcher.Wait)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"notify_backend", cfg.EffectiveNotifyBackend(),
	)

	return srv.Run(ctx)
}

// newNotifier picks the welcome notification backend.
func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, func() error, error) {
	noClose := func() error { return nil }

	switch cfg.EffectiveNotifyBackend() {
	case config.NotifyBackendSMTP:
		mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
			From:     cfg.EmailFrom,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("smtp notifier: %w", err)
		}
		logger.Info("welcome mail via smtp", "host", cfg.EmailHost)
		return mailer, noClose, nil

	case config.NotifyBackendAMQP:
		queue, err := notify.NewQueue(notify.QueueConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("amqp notifier: %s", logging.SanitizeError(err, cfg.AMQPURL))
		}
		logger.Info("welcome mail via queue", "amqp_url", logging.RedactURL(cfg.AMQPURL), "queue", cfg.AMQPQueue)
		return queue, queue.Close, nil

	default:
		logger.Info("welcome mail disabled")
		return notify.Noop{}, noClose, nil
	}
}

type routes struct {
	root       *handler.Handler
	health     *handler.HealthHandler
	metrics    *handler.MetricsHandler
	auth       *handler.AuthHandler
	categories *handler.CategoryHandler
	expenses   *handler.ExpenseHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h routes,
	tokens middleware.TokenVerifier,
	limiter middleware.LoginLimiter,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)
	r.Get("/", h.root.Hello)

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger: logger,
		Tokens: tokens,
	})

	loginLimit := middleware.RateLimitLogin(middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: limiter,
		Metrics: recorder,
		Enabled: cfg.LoginRateLimitEnabled,
		Max:     cfg.LoginRateLimitMax,
		Window:  cfg.LoginRateLimitWindow,
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.auth.Register)
			r.With(loginLimit).Post("/login", h.auth.Login)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.categories.Create)
			r.Get("/", h.categories.List)
			r.Delete("/{name}", h.categories.Delete)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", h.expenses.List)
			r.Get("/analytics", h.expenses.Analytics)
			r.Post("/", h.expenses.Create)
			r.Delete("/", h.expenses.BulkDelete)
			r.Put("/{id}", h.expenses.Update)
			r.Delete("/{id}", h.expenses.Delete)
		})
	})

	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}
