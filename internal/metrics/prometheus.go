package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "conteo_landing"

// PrometheusRecorder exports metrics through a private Prometheus registry.
type PrometheusRecorder struct {
	registry      *prometheus.Registry
	signups       *prometheus.CounterVec
	verifications *prometheus.CounterVec
	feedback      *prometheus.CounterVec
	emails        *prometheus.CounterVec
	providerCalls *prometheus.HistogramVec
	countCache    *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry, including the
// standard process and Go runtime collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "beta",
			Name:      "signups_total",
			Help:      "Beta signup attempts by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "beta",
			Name:      "verifications_total",
			Help:      "Beta tester verification checks by result.",
		}, []string{"result"}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "beta",
			Name:      "feedback_total",
			Help:      "Feedback submissions by outcome.",
		}, []string{"outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Transactional emails by kind and delivery status.",
		}, []string{"kind", "status"}),
		providerCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Duration of email/contact provider requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"op", "status"}),
		countCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "count_lookups_total",
			Help:      "Contact count cache lookups by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter.",
		}, []string{"route"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	p.registry.MustRegister(
		p.signups,
		p.verifications,
		p.feedback,
		p.emails,
		p.providerCalls,
		p.countCache,
		p.rateLimited,
		p.httpRequests,
		p.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return p
}

// Handler returns an HTTP handler exposing the registered metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// IncSignup increments the signup counter for outcome.
func (p *PrometheusRecorder) IncSignup(outcome string) {
	p.signups.WithLabelValues(outcome).Inc()
}

// IncVerification increments the verification counter for result.
func (p *PrometheusRecorder) IncVerification(result string) {
	p.verifications.WithLabelValues(result).Inc()
}

// IncFeedback increments the feedback counter for outcome.
func (p *PrometheusRecorder) IncFeedback(outcome string) {
	p.feedback.WithLabelValues(outcome).Inc()
}

// IncEmail increments the email counter for kind and status.
func (p *PrometheusRecorder) IncEmail(kind, status string) {
	p.emails.WithLabelValues(kind, status).Inc()
}

// ObserveProviderCall records one provider round-trip.
func (p *PrometheusRecorder) ObserveProviderCall(op, status string, duration time.Duration) {
	p.providerCalls.WithLabelValues(op, status).Observe(duration.Seconds())
}

// IncCountCacheHit increments count cache hit counter.
func (p *PrometheusRecorder) IncCountCacheHit() {
	p.countCache.WithLabelValues("hit").Inc()
}

// IncCountCacheMiss increments count cache miss counter.
func (p *PrometheusRecorder) IncCountCacheMiss() {
	p.countCache.WithLabelValues("miss").Inc()
}

// IncRateLimited increments the rate limit rejection counter for route.
func (p *PrometheusRecorder) IncRateLimited(route string) {
	p.rateLimited.WithLabelValues(route).Inc()
}

// ObserveHTTPRequest records one served request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
