package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// localLimiterMaxKeys caps the number of tracked IPs before idle ones are
// swept.
const localLimiterMaxKeys = 10000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process IPLimiter used when Redis is not configured.
// Budgets are per process, so they multiply with the number of replicas.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	idle    time.Duration
	now     func() time.Time
}

// NewLocalLimiter creates a LocalLimiter. Entries unused for idle are
// forgotten once the table grows past its cap.
func NewLocalLimiter(idle time.Duration) *LocalLimiter {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &LocalLimiter{
		entries: make(map[string]*localEntry),
		idle:    idle,
		now:     time.Now,
	}
}

// CheckIPRateLimit consumes one token from ip's bucket.
func (l *LocalLimiter) CheckIPRateLimit(_ context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	now := l.now()
	lim := l.limiter(ipRateLimitKey(ip), now, ratePerSecond, burst)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return &RateLimitResult{Allowed: false, ResetAt: now.Add(time.Second), RetryAfter: time.Second}, nil
	}

	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
		retry := time.Duration(math.Ceil(delay.Seconds())) * time.Second
		return &RateLimitResult{
			Allowed:    false,
			ResetAt:    now.Add(delay),
			RetryAfter: retry,
		}, nil
	}

	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(lim.TokensAt(now)),
		ResetAt:   now.Add(time.Duration(float64(time.Second) / float64(ratePerSecond))),
	}, nil
}

func (l *LocalLimiter) limiter(key string, now time.Time, ratePerSecond, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= localLimiterMaxKeys {
			l.sweep(now)
		}
		e = &localEntry{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep must be called with mu held.
func (l *LocalLimiter) sweep(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idle {
			delete(l.entries, k)
		}
	}
}

// Len returns the number of tracked IPs.
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
