package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups          map[string]uint64
	Verifications    map[string]uint64
	Feedback         map[string]uint64
	Emails           map[string]uint64 // keyed "kind:status"
	ProviderCalls    map[string]uint64 // keyed "op:status"
	ProviderTotalNs  int64
	CountCacheHits   uint64
	CountCacheMisses uint64
	RateLimited      map[string]uint64
	HTTPRequests     map[string]uint64 // keyed "METHOD route status"
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu               sync.Mutex
	signups          map[string]uint64
	verifications    map[string]uint64
	feedback         map[string]uint64
	emails           map[string]uint64
	providerCalls    map[string]uint64
	rateLimited      map[string]uint64
	httpRequests     map[string]uint64
	providerTotalNs  int64
	countCacheHits   uint64
	countCacheMisses uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		signups:       make(map[string]uint64),
		verifications: make(map[string]uint64),
		feedback:      make(map[string]uint64),
		emails:        make(map[string]uint64),
		providerCalls: make(map[string]uint64),
		rateLimited:   make(map[string]uint64),
		httpRequests:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Signups:          copyCounts(m.signups),
		Verifications:    copyCounts(m.verifications),
		Feedback:         copyCounts(m.feedback),
		Emails:           copyCounts(m.emails),
		ProviderCalls:    copyCounts(m.providerCalls),
		ProviderTotalNs:  atomic.LoadInt64(&m.providerTotalNs),
		CountCacheHits:   atomic.LoadUint64(&m.countCacheHits),
		CountCacheMisses: atomic.LoadUint64(&m.countCacheMisses),
		RateLimited:      copyCounts(m.rateLimited),
		HTTPRequests:     copyCounts(m.httpRequests),
	}
}

// IncSignup increments the signup counter for outcome.
func (m *InMemoryRecorder) IncSignup(outcome string) {
	m.inc(m.signups, outcome)
}

// IncVerification increments the verification counter for result.
func (m *InMemoryRecorder) IncVerification(result string) {
	m.inc(m.verifications, result)
}

// IncFeedback increments the feedback counter for outcome.
func (m *InMemoryRecorder) IncFeedback(outcome string) {
	m.inc(m.feedback, outcome)
}

// IncEmail increments the email counter for kind and status.
func (m *InMemoryRecorder) IncEmail(kind, status string) {
	m.inc(m.emails, kind+":"+status)
}

// ObserveProviderCall records one provider round-trip.
func (m *InMemoryRecorder) ObserveProviderCall(op, status string, duration time.Duration) {
	m.inc(m.providerCalls, op+":"+status)
	atomic.AddInt64(&m.providerTotalNs, duration.Nanoseconds())
}

// IncCountCacheHit increments count cache hit counter.
func (m *InMemoryRecorder) IncCountCacheHit() {
	atomic.AddUint64(&m.countCacheHits, 1)
}

// IncCountCacheMiss increments count cache miss counter.
func (m *InMemoryRecorder) IncCountCacheMiss() {
	atomic.AddUint64(&m.countCacheMisses, 1)
}

// IncRateLimited increments the rate limit rejection counter for route.
func (m *InMemoryRecorder) IncRateLimited(route string) {
	m.inc(m.rateLimited, route)
}

// ObserveHTTPRequest counts one served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.inc(m.httpRequests, method+" "+route+" "+strconv.Itoa(status))
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
