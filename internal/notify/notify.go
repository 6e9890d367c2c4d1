// Package notify renders and sends the transactional emails of the beta
// program: the welcome email after signup and the forwarded feedback.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conteo/landing/internal/metrics"
	"github.com/conteo/landing/internal/model"
	"github.com/conteo/landing/internal/provider"
	"github.com/conteo/landing/internal/validation"
)

// Subjects.
const (
	WelcomeSubject     = "🎉 Bienvenue dans la beta Contéo !"
	feedbackSubjectFmt = "[Contéo] %s - Nouveau feedback"
)

// Default senders.
const (
	DefaultFrom         = "Contéo <noreply@conteo.app>"
	DefaultFeedbackFrom = "Contéo Feedback <onboarding@resend.dev>"
)

// ErrNoFeedbackInbox is returned when no feedback recipient is configured.
var ErrNoFeedbackInbox = errors.New("feedback inbox not configured")

// Config configures a Dispatcher.
type Config struct {
	From         string
	FeedbackFrom string
	FeedbackTo   string
	DownloadURL  string
}

// Dispatcher builds emails and hands them to a provider.Mailer.
type Dispatcher struct {
	mailer  provider.Mailer
	cfg     Config
	metrics metrics.Recorder
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher. Empty senders fall back to the
// defaults.
func NewDispatcher(mailer provider.Mailer, cfg Config, recorder metrics.Recorder) *Dispatcher {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.FeedbackFrom == "" {
		cfg.FeedbackFrom = DefaultFeedbackFrom
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Dispatcher{
		mailer:  mailer,
		cfg:     cfg,
		metrics: recorder,
		now:     time.Now,
	}
}

// SendWelcomeEmail sends the welcome email to a new beta tester.
func (d *Dispatcher) SendWelcomeEmail(ctx context.Context, email string) error {
	html, err := RenderWelcome(WelcomeParams{
		DownloadURL: d.cfg.DownloadURL,
		Year:        d.now().Year(),
	})
	if err != nil {
		return err
	}

	return d.send(ctx, metrics.EmailWelcome, model.Email{
		From:    d.cfg.From,
		To:      []string{email},
		Subject: WelcomeSubject,
		HTML:    html,
	})
}

// SendFeedbackEmail forwards a feedback message to the team inbox with
// reply-to set to the submitter.
func (d *Dispatcher) SendFeedbackEmail(ctx context.Context, from string, kind validation.FeedbackType, message string) error {
	if d.cfg.FeedbackTo == "" {
		d.metrics.IncEmail(metrics.EmailFeedback, metrics.StatusFailed)
		return ErrNoFeedbackInbox
	}

	label := kind.Label()
	html, err := RenderFeedback(FeedbackParams{
		Label:   label,
		From:    from,
		Message: message,
	})
	if err != nil {
		return err
	}

	return d.send(ctx, metrics.EmailFeedback, model.Email{
		From:    d.cfg.FeedbackFrom,
		To:      []string{d.cfg.FeedbackTo},
		ReplyTo: from,
		Subject: FeedbackSubject(kind),
		HTML:    html,
	})
}

// FeedbackSubject returns the subject line for a feedback email.
func FeedbackSubject(kind validation.FeedbackType) string {
	return fmt.Sprintf(feedbackSubjectFmt, kind.Label())
}

func (d *Dispatcher) send(ctx context.Context, kind string, email model.Email) error {
	if err := d.mailer.Send(ctx, email); err != nil {
		d.metrics.IncEmail(kind, metrics.StatusFailed)
		return err
	}
	d.metrics.IncEmail(kind, metrics.StatusSuccess)
	return nil
}
