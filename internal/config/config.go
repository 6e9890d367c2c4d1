// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Provider backends.
const (
	ProviderResend = "resend"
	ProviderMemory = "memory"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Email/contact provider. "memory" keeps contacts in-process and is
	// meant for local development only.
	Provider         string        `env:"PROVIDER" envDefault:"resend"`
	ResendAPIKey     string        `env:"RESEND_API_KEY"`
	ResendBaseURL    string        `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	ResendAudienceID string        `env:"RESEND_AUDIENCE_ID"`
	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	// Email addresses
	FromEmail         string `env:"RESEND_FROM_EMAIL" envDefault:"Contéo <noreply@conteo.app>"`
	FeedbackFromEmail string `env:"FEEDBACK_FROM_EMAIL" envDefault:"Contéo Feedback <onboarding@resend.dev>"`
	FeedbackEmail     string `env:"FEEDBACK_EMAIL"`

	// Download link for the beta build. Empty means the beta is not out yet
	// and the welcome email uses the waiting-list variant.
	BetaDownloadURL string `env:"BETA_DOWNLOAD_URL"`

	// Cache (Redis). Optional; without it the count is not cached and rate
	// limiting falls back to an in-process limiter.
	RedisURL      string        `env:"REDIS_URL"`
	CountCacheTTL time.Duration `env:"COUNT_CACHE_TTL" envDefault:"30s"`

	// Rate limiting on the public form endpoints (per client IP)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://conteo.app,https://www.conteo.app")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks rules that span several fields.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required when PROVIDER=resend"))
		}
	case ProviderMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("PROVIDER=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PROVIDER %q", c.Provider))
	}

	if c.FeedbackEmail == "" {
		errs = append(errs, errors.New("FEEDBACK_EMAIL is required"))
	}

	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
