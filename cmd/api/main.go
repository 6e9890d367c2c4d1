// Package main is the entrypoint for the Contéo beta landing API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/conteo/landing/internal/cache"
	"github.com/conteo/landing/internal/config"
	"github.com/conteo/landing/internal/handler"
	"github.com/conteo/landing/internal/metrics"
	"github.com/conteo/landing/internal/middleware"
	"github.com/conteo/landing/internal/notify"
	"github.com/conteo/landing/internal/provider"
	"github.com/conteo/landing/internal/server"
	"github.com/conteo/landing/internal/service"
)

// contactProvider is what the API needs from the email/contact backend.
// Both *provider.Client and *provider.Memory satisfy it.
type contactProvider interface {
	provider.Directory
	provider.Mailer
	Ping(ctx context.Context) error
}

// limiterIdleTTL is how long the in-process limiter keeps an idle IP.
const limiterIdleTTL = 10 * time.Minute

func main() {
	ctx := context.Background()

	// A .env file is only expected in local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	recorder := metrics.NewPrometheus()

	prov, closeProvider, err := newProvider(cfg, recorder)
	if err != nil {
		logger.Error("failed to create provider client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("provider configured",
		slog.String("provider", cfg.Provider),
		slog.String("base_url", cfg.ResendBaseURL),
		slog.Bool("audience", cfg.ResendAudienceID != ""),
	)

	// Redis is optional. Keep the interfaces nil (not a typed nil pointer)
	// when it is absent.
	var (
		countCache  service.CountCache
		redisHealth handler.HealthChecker
		limiter     cache.IPLimiter = cache.NewLocalLimiter(limiterIdleTTL)
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		countCache = cacheClient
		redisHealth = cacheClient
		limiter = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Info("REDIS_URL not set, using in-process rate limiter and no count cache")
	}

	dispatcher := notify.NewDispatcher(prov, notify.Config{
		From:         cfg.FromEmail,
		FeedbackFrom: cfg.FeedbackFromEmail,
		FeedbackTo:   cfg.FeedbackEmail,
		DownloadURL:  cfg.BetaDownloadURL,
	}, recorder)

	betaService := service.NewBetaService(service.BetaConfig{
		Directory: prov,
		Notifier:  dispatcher,
		Cache:     countCache,
		CountTTL:  cfg.CountCacheTTL,
		Metrics:   recorder,
		Logger:    logger,
	})

	r := setupRouter(routerDeps{
		beta:           handler.NewBetaHandler(betaService, logger),
		health:         handler.NewHealthHandler(prov, redisHealth, logger),
		limiter:        limiter,
		metrics:        recorder,
		metricsHandler: recorder.Handler(),
		cfg:            cfg,
		logger:         logger,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("provider", func(context.Context) error {
		closeProvider()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"beta_available", cfg.BetaDownloadURL != "",
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newProvider builds the configured provider backend and its close func.
func newProvider(cfg *config.Config, recorder metrics.Recorder) (contactProvider, func(), error) {
	switch cfg.Provider {
	case config.ProviderMemory:
		return provider.NewMemory(), func() {}, nil
	case config.ProviderResend:
		client, err := provider.NewClient(provider.ClientConfig{
			APIKey:     cfg.ResendAPIKey,
			BaseURL:    cfg.ResendBaseURL,
			AudienceID: cfg.ResendAudienceID,
			Timeout:    cfg.ProviderTimeout,
			Recorder:   recorder,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
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
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	beta    *handler.BetaHandler
	health  *handler.HealthHandler
	limiter cache.IPLimiter
	metrics metrics.Recorder
	// metricsHandler serves /metrics; nil leaves the route unmounted.
	metricsHandler http.Handler
	cfg            *config.Config
	logger         *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Instrument(deps.metrics))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.CORS(corsCfg))

	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	if deps.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.metricsHandler)
	}

	limited := r.With(middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  deps.logger,
		Limiter: deps.limiter,
		Metrics: deps.metrics,
		Enabled: cfg.RateLimitEnabled,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}))

	// The /api/* paths are the ones the landing page was first deployed
	// with and stay mounted as aliases.
	for _, path := range []string{"/signup", "/api/beta-signup"} {
		limited.Post(path, deps.beta.Signup)
		r.Get(path, deps.beta.Count)
	}
	for _, path := range []string{"/verify", "/api/verify-beta"} {
		limited.Post(path, deps.beta.Verify)
	}
	for _, path := range []string{"/feedback", "/api/feedback"} {
		limited.Post(path, deps.beta.Feedback)
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

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
