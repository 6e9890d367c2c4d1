//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conteo/landing/internal/testutil"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := New(context.Background(), testutil.RedisURL())
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	_ = testutil.FlushRedis(context.Background(), c.Client())
	return c
}

func TestContactCountCache(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.GetContactCount(ctx); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := c.SetContactCount(ctx, 42, time.Minute); err != nil {
		t.Fatalf("SetContactCount: %v", err)
	}
	n, err := c.GetContactCount(ctx)
	if err != nil || n != 42 {
		t.Fatalf("GetContactCount = %d, %v; want 42", n, err)
	}

	if err := c.InvalidateContactCount(ctx); err != nil {
		t.Fatalf("InvalidateContactCount: %v", err)
	}
	if _, err := c.GetContactCount(ctx); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss after invalidation, got %v", err)
	}
}

func TestIPRateLimit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var allowed int
	for i := 0; i < 5; i++ {
		res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, 3)
		if err != nil {
			t.Fatalf("CheckIPRateLimit: %v", err)
		}
		if res.Allowed {
			allowed++
		}
	}
	if allowed < 3 || allowed > 4 {
		t.Errorf("allowed = %d, want burst of 3 (plus at most one refill)", allowed)
	}
}
