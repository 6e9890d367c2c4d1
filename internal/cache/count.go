package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	contactCountKey = "beta:contacts:count"

	// DefaultCountTTL bounds how stale the public signup count may be.
	DefaultCountTTL = 30 * time.Second
)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// GetContactCount returns the cached number of beta contacts.
// Returns ErrCacheMiss if not cached.
func (c *Cache) GetContactCount(ctx context.Context) (int, error) {
	val, err := c.client.Get(ctx, contactCountKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		// Corrupt entry, treat as a miss and let the caller refill it.
		c.client.Del(ctx, contactCountKey)
		return 0, ErrCacheMiss
	}
	return n, nil
}

// SetContactCount caches the number of beta contacts for ttl.
func (c *Cache) SetContactCount(ctx context.Context, count int, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCountTTL
	}
	if err := c.client.Set(ctx, contactCountKey, count, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache contact count: %w", err)
	}
	return nil
}

// InvalidateContactCount drops the cached count after a new signup.
func (c *Cache) InvalidateContactCount(ctx context.Context) error {
	if err := c.client.Del(ctx, contactCountKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate contact count: %w", err)
	}
	return nil
}
