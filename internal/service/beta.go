// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conteo/landing/internal/cache"
	"github.com/conteo/landing/internal/metrics"
	"github.com/conteo/landing/internal/model"
	"github.com/conteo/landing/internal/provider"
	"github.com/conteo/landing/internal/validation"
)

// Service errors.
var (
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrAddContact        = errors.New("failed to add contact")
	ErrCount             = errors.New("failed to count contacts")
	ErrVerify            = errors.New("failed to verify contact")
)

// FeedbackWarning is attached to an accepted feedback whose forwarding email
// could not be sent.
const FeedbackWarning = "Feedback reçu mais email non envoyé"

// Notifier sends the beta program emails.
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, email string) error
	SendFeedbackEmail(ctx context.Context, from string, kind validation.FeedbackType, message string) error
}

// CountCache caches the public contact count. *cache.Cache implements it.
type CountCache interface {
	GetContactCount(ctx context.Context) (int, error)
	SetContactCount(ctx context.Context, count int, ttl time.Duration) error
	InvalidateContactCount(ctx context.Context) error
}

// BetaService handles beta signup, verification and feedback.
type BetaService struct {
	directory provider.Directory
	notifier  Notifier
	cache     CountCache
	countTTL  time.Duration
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// BetaConfig wires a BetaService. Cache may be nil.
type BetaConfig struct {
	Directory provider.Directory
	Notifier  Notifier
	Cache     CountCache
	CountTTL  time.Duration
	Metrics   metrics.Recorder
	Logger    *slog.Logger
}

// NewBetaService creates a new BetaService.
func NewBetaService(cfg BetaConfig) *BetaService {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BetaService{
		directory: cfg.Directory,
		notifier:  cfg.Notifier,
		cache:     cfg.Cache,
		countTTL:  cfg.CountTTL,
		metrics:   recorder,
		logger:    logger.With(slog.String("component", "beta")),
	}
}

// SignupResult is returned by a successful signup.
type SignupResult struct {
	ContactID string
}

// Signup registers email as a beta tester and sends the welcome email.
// The welcome email is best effort: its failure is logged and does not
// undo the signup.
func (s *BetaService) Signup(ctx context.Context, email string) (*SignupResult, error) {
	in, err := validation.ValidateSignup(validation.SignupInput{Email: email})
	if err != nil {
		s.metrics.IncSignup(metrics.SignupInvalid)
		return nil, err
	}

	existing, err := s.directory.FindByEmail(ctx, in.Email)
	if err != nil {
		s.metrics.IncSignup(metrics.SignupError)
		return nil, fmt.Errorf("%w: lookup: %w", ErrAddContact, err)
	}
	if existing != nil {
		s.metrics.IncSignup(metrics.SignupDuplicate)
		return nil, ErrAlreadyRegistered
	}

	contact, err := s.directory.Create(ctx, in.Email)
	if err != nil {
		// A concurrent signup for the same address won the create.
		if errors.Is(err, provider.ErrContactExists) {
			s.metrics.IncSignup(metrics.SignupDuplicate)
			return nil, ErrAlreadyRegistered
		}
		s.metrics.IncSignup(metrics.SignupError)
		return nil, fmt.Errorf("%w: %w", ErrAddContact, err)
	}
	s.metrics.IncSignup(metrics.SignupCreated)

	s.invalidateCount(ctx)

	if err := s.notifier.SendWelcomeEmail(ctx, in.Email); err != nil {
		s.logger.WarnContext(ctx, "welcome email not sent",
			slog.String("contact_id", contact.ID),
			slog.String("error", err.Error()),
		)
	}

	return &SignupResult{ContactID: contact.ID}, nil
}

// Count returns the number of beta contacts, served from cache when
// possible.
func (s *BetaService) Count(ctx context.Context) (int, error) {
	if s.cache != nil {
		n, err := s.cache.GetContactCount(ctx)
		if err == nil {
			s.metrics.IncCountCacheHit()
			return n, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "count cache read failed", slog.String("error", err.Error()))
		}
		s.metrics.IncCountCacheMiss()
	}

	contacts, err := s.directory.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCount, err)
	}
	n := len(contacts)

	if s.cache != nil {
		if err := s.cache.SetContactCount(ctx, n, s.countTTL); err != nil {
			s.logger.WarnContext(ctx, "count cache write failed", slog.String("error", err.Error()))
		}
	}
	return n, nil
}

// Verify reports whether email belongs to a beta tester, ignoring case.
// The check is repeated on every call and grants nothing beyond the answer.
func (s *BetaService) Verify(ctx context.Context, email string) (bool, error) {
	in, err := validation.ValidateSignup(validation.SignupInput{Email: email})
	if err != nil {
		s.metrics.IncVerification(metrics.VerifyInvalid)
		return false, err
	}

	contacts, err := s.directory.List(ctx)
	if err != nil {
		s.metrics.IncVerification(metrics.VerifyError)
		return false, fmt.Errorf("%w: %w", ErrVerify, err)
	}

	verified := model.ContainsEmail(contacts, in.Email)
	if verified {
		s.metrics.IncVerification(metrics.VerifyVerified)
	} else {
		s.metrics.IncVerification(metrics.VerifyUnknown)
	}
	return verified, nil
}

// FeedbackResult is returned for accepted feedback.
type FeedbackResult struct {
	// Warning is set when the feedback could not be forwarded by email.
	Warning string
}

// SubmitFeedback validates and forwards a feedback message. A delivery
// failure is not an error: the content is logged so it is not lost and
// the result carries a warning.
func (s *BetaService) SubmitFeedback(ctx context.Context, in validation.FeedbackInput) (*FeedbackResult, error) {
	fb, err := validation.ValidateFeedback(in)
	if err != nil {
		s.metrics.IncFeedback(metrics.FeedbackInvalid)
		return nil, err
	}

	if err := s.notifier.SendFeedbackEmail(ctx, fb.Email, fb.Type, fb.Message); err != nil {
		s.logger.ErrorContext(ctx, "feedback email not sent, feedback logged",
			slog.String("error", err.Error()),
			slog.Group("feedback",
				slog.String("from", fb.Email),
				slog.String("type", string(fb.Type)),
				slog.String("message", fb.Message),
			),
		)
		s.metrics.IncFeedback(metrics.FeedbackDegraded)
		return &FeedbackResult{Warning: FeedbackWarning}, nil
	}

	s.metrics.IncFeedback(metrics.FeedbackSent)
	return &FeedbackResult{}, nil
}

func (s *BetaService) invalidateCount(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateContactCount(ctx); err != nil {
		s.logger.WarnContext(ctx, "count cache invalidation failed", slog.String("error", err.Error()))
	}
}
