package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conteo/landing/internal/middleware"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	down := errors.New("connection refused: secret-host:6379")

	tests := []struct {
		name         string
		provider     HealthChecker
		cache        HealthChecker
		wantCode     int
		wantProvider string
		wantRedis    string
	}{
		{
			name:         "all healthy",
			provider:     &mockHealthChecker{},
			cache:        &mockHealthChecker{},
			wantCode:     http.StatusOK,
			wantProvider: "ok",
			wantRedis:    "ok",
		},
		{
			name:         "redis not configured",
			provider:     &mockHealthChecker{},
			cache:        nil,
			wantCode:     http.StatusOK,
			wantProvider: "ok",
			wantRedis:    "not configured",
		},
		{
			name:         "provider down",
			provider:     &mockHealthChecker{err: down},
			cache:        &mockHealthChecker{},
			wantCode:     http.StatusServiceUnavailable,
			wantProvider: "error",
			wantRedis:    "ok",
		},
		{
			name:         "redis down",
			provider:     &mockHealthChecker{},
			cache:        &mockHealthChecker{err: down},
			wantCode:     http.StatusServiceUnavailable,
			wantProvider: "ok",
			wantRedis:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.provider, tt.cache, nil)

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			rec := httptest.NewRecorder()

			h.Readyz(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Checks["provider"] != tt.wantProvider {
				t.Errorf("provider check = %q, want %q", response.Checks["provider"], tt.wantProvider)
			}
			if response.Checks["redis"] != tt.wantRedis {
				t.Errorf("redis check = %q, want %q", response.Checks["redis"], tt.wantRedis)
			}
		})
	}
}

func TestHealthHandler_Readyz_LogsFailedCheck(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	down := errors.New("connection refused: secret-host:6379")

	h := NewHealthHandler(&mockHealthChecker{}, &mockHealthChecker{err: down}, logger)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-ready-1"))
	rec := httptest.NewRecorder()

	h.Readyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-host") {
		t.Errorf("response leaks dependency error: %s", rec.Body.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "readiness_check_failed" {
		t.Errorf("msg = %v, want readiness_check_failed", entry["msg"])
	}
	if entry["check"] != "redis" {
		t.Errorf("check = %v, want redis", entry["check"])
	}
	if entry["request_id"] != "req-ready-1" {
		t.Errorf("request_id = %v, want req-ready-1", entry["request_id"])
	}
	if errText, _ := entry["error"].(string); !strings.Contains(errText, "secret-host") {
		t.Errorf("error = %v, want the ping error", entry["error"])
	}
}
