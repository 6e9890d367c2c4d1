package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup(outcome string) {}

// IncVerification is a no-op.
func (n *NoopRecorder) IncVerification(result string) {}

// IncFeedback is a no-op.
func (n *NoopRecorder) IncFeedback(outcome string) {}

// IncEmail is a no-op.
func (n *NoopRecorder) IncEmail(kind, status string) {}

// ObserveProviderCall is a no-op.
func (n *NoopRecorder) ObserveProviderCall(op, status string, duration time.Duration) {}

// IncCountCacheHit is a no-op.
func (n *NoopRecorder) IncCountCacheHit() {}

// IncCountCacheMiss is a no-op.
func (n *NoopRecorder) IncCountCacheMiss() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(route string) {}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
