// Package main is the entrypoint for the Visiongate API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/visiongate/visiongate/internal/billing"
	"github.com/visiongate/visiongate/internal/cache"
	"github.com/visiongate/visiongate/internal/config"
	"github.com/visiongate/visiongate/internal/handler"
	"github.com/visiongate/visiongate/internal/inference"
	"github.com/visiongate/visiongate/internal/metering"
	"github.com/visiongate/visiongate/internal/metrics"
	"github.com/visiongate/visiongate/internal/middleware"
	"github.com/visiongate/visiongate/internal/ratelimit"
	"github.com/visiongate/visiongate/internal/repository"
	"github.com/visiongate/visiongate/internal/server"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database (credential store + usage trail)
	repo, err := repository.New(ctx, cfg.SupabaseDBURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.SupabaseDBURL)),
			slog.String("database_url", redactURL(cfg.SupabaseDBURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache (usage counters)
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize the model engine and load weights before serving;
	// a gateway without a loaded model cannot serve anything.
	engine := inference.NewClient(cfg.ModelURL, cfg.ModelPath)
	if err := engine.Load(ctx); err != nil {
		logger.Error("failed to load model",
			slog.String("error", err.Error()),
			slog.String("model_url", cfg.ModelURL),
			slog.String("model_path", cfg.ModelPath),
		)
		os.Exit(1)
	}
	logger.Info("model loaded", slog.String("model_path", cfg.ModelPath))

	// Initialize billing
	checkout, err := billing.NewStripeCheckout(cfg.StripeAPIKey, cfg.StripeSuccessURL, cfg.StripeCancelURL)
	if err != nil {
		logger.Error("failed to initialize Stripe client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	metricsRecorder := metrics.NewNoop()
	meter := metering.NewService(cacheClient, repo, metering.Pricing{
		PerTokenCents: cfg.PricePerTokenCents,
		PerImageCents: cfg.PricePerImageCents,
	})
	limiter := ratelimit.New(cfg.RateLimitPerMinute, time.Minute)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient, engine)
	completionHandler := handler.NewCompletionHandler(logger, engine, meter, metricsRecorder)
	accountHandler := handler.NewAccountHandler(logger, repo)
	checkoutHandler := handler.NewCheckoutHandler(logger, meter, checkout, metricsRecorder)

	// Setup router
	r := setupRouter(routerDeps{
		base:       h,
		health:     healthHandler,
		completion: completionHandler,
		account:    accountHandler,
		checkout:   checkoutHandler,
		repo:       repo,
		limiter:    limiter,
		metrics:    metricsRecorder,
		cfg:        cfg,
		logger:     logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("rate limiter", func(ctx context.Context) error {
		limiter.Stop()
		return nil
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base       *handler.Handler
	health     *handler.HealthHandler
	completion *handler.CompletionHandler
	account    *handler.AccountHandler
	checkout   *handler.CheckoutHandler
	repo       *repository.Repository
	limiter    *ratelimit.Limiter
	metrics    metrics.Recorder
	cfg        *config.Config
	logger     *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      deps.cfg.IsDevelopment(),
		MaxRequestBodySize: deps.cfg.MaxRequestBodySize,
	}))

	if origins := deps.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	// Account lifecycle (credential-verified, not key-gated)
	r.Post("/register", deps.account.Register)
	r.Post("/rotate_api_key", deps.account.RotateAPIKey)
	r.Post("/delete_account", deps.account.DeleteAccount)

	// Billing
	r.Post("/checkout/", deps.checkout.CreateCheckoutSession)

	// Inference: auth first, then rate limit, so unauthenticated
	// requests never consume a window slot.
	authCfg := middleware.AuthConfig{
		Logger:  deps.logger,
		Store:   deps.repo,
		Metrics: deps.metrics,
	}
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  deps.logger,
		Limiter: deps.limiter,
		Enabled: deps.cfg.RateLimitEnabled,
		Metrics: deps.metrics,
	}
	r.With(middleware.Auth(authCfg), middleware.RateLimit(rateLimitCfg)).
		Post("/completion", deps.completion.Completion)

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
