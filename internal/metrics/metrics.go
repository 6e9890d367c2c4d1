// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Signup outcomes.
const (
	SignupCreated   = "created"
	SignupDuplicate = "duplicate"
	SignupInvalid   = "invalid"
	SignupError     = "error"
)

// Verification results.
const (
	VerifyVerified = "verified"
	VerifyUnknown  = "unknown"
	VerifyInvalid  = "invalid"
	VerifyError    = "error"
)

// Feedback outcomes. "degraded" means the feedback was accepted but the
// forwarding email could not be sent.
const (
	FeedbackSent     = "sent"
	FeedbackDegraded = "degraded"
	FeedbackInvalid  = "invalid"
)

// Email kinds and statuses.
const (
	EmailWelcome  = "welcome"
	EmailFeedback = "feedback"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Form endpoint outcomes
	IncSignup(outcome string)
	IncVerification(result string)
	IncFeedback(outcome string)

	// Outgoing email, best effort
	IncEmail(kind, status string)

	// Provider round-trips, op is the provider operation name
	ObserveProviderCall(op, status string, duration time.Duration)

	// Contact count cache
	IncCountCacheHit()
	IncCountCacheMiss()

	// Requests rejected by the per-IP limiter
	IncRateLimited(route string)

	// Served HTTP requests, route is the chi route pattern
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
