package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/conteo/landing/internal/middleware"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	provider HealthChecker
	cache    HealthChecker
	logger   *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for cache when Redis is not configured. A nil logger uses
// slog.Default.
func NewHealthHandler(provider, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness endpoint.
// It returns 200 if the server is running.
// No dependency checks are made.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is the readiness endpoint.
// It returns 200 only if the email provider and, when configured, Redis
// answer.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	check := func(name string, c HealthChecker) {
		if c == nil {
			checks[name] = "not configured"
			return
		}
		// Error text is logged here, never echoed.
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn("readiness_check_failed",
				"check", name,
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			checks[name] = "error"
			healthy = false
			return
		}
		checks[name] = "ok"
	}

	check("provider", h.provider)
	check("redis", h.cache)

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{
		Status: status,
		Checks: checks,
	})
}
