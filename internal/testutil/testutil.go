// Package testutil holds helpers shared by the package test suites.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTestURL points at database 15 so integration runs never touch
// a developer's working data.
const DefaultRedisTestURL = "redis://localhost:6379/15"

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// RedisURL returns REDIS_TEST_URL, or DefaultRedisTestURL when unset.
func RedisURL() string {
	if v := os.Getenv("REDIS_TEST_URL"); v != "" {
		return v
	}
	return DefaultRedisTestURL
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var seq atomic.Uint64

// UniqueID returns a process-unique identifier with the given prefix.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// UniqueEmail returns a fresh address under the example.com domain.
func UniqueEmail(prefix string) string {
	return strings.ToLower(UniqueID(prefix)) + "@example.com"
}
