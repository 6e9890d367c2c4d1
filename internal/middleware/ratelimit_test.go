package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conteo/landing/internal/cache"
	"github.com/conteo/landing/internal/metrics"
)

type failingLimiter struct{}

func (failingLimiter) CheckIPRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	return nil, errors.New("redis: connection refused")
}

func newRateLimitedRouter(cfg RateLimitConfig) http.Handler {
	r := chi.NewRouter()
	r.With(RateLimitIP(cfg)).Post("/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	rec := metrics.NewInMemory()
	router := newRateLimitedRouter(RateLimitConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Limiter: cache.NewLocalLimiter(time.Minute),
		Metrics: rec,
		Enabled: true,
		RPS:     1,
		Burst:   2,
	})

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signup", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do("198.51.100.7:5000"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	// Same IP, different source port.
	w := do("198.51.100.7:6000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] == "" {
		t.Errorf("expected JSON error body, got %q (%v)", w.Body.String(), err)
	}

	if w := do("198.51.100.8:5000"); w.Code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", w.Code)
	}

	if got := rec.Snapshot().RateLimited["/signup"]; got != 1 {
		t.Errorf("rate limited metric = %d, want 1", got)
	}
}

func TestRateLimitIP_Disabled(t *testing.T) {
	t.Parallel()

	router := newRateLimitedRouter(RateLimitConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Limiter: cache.NewLocalLimiter(time.Minute),
		Enabled: false,
		RPS:     1,
		Burst:   1,
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/signup", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimitIP_FailOpen(t *testing.T) {
	t.Parallel()

	router := newRateLimitedRouter(RateLimitConfig{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Limiter: failingLimiter{},
		Enabled: true,
		RPS:     1,
		Burst:   1,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/signup", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when the limiter errors", w.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.1:1234", "203.0.113.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.1", "203.0.113.1"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := getClientIP(req); got != tt.want {
			t.Errorf("getClientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
