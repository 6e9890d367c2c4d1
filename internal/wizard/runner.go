package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/conteo/landing/internal/validation"
)

// ErrDiscarded is returned when a call finished after the user left the
// screen that started it; its result is dropped.
var ErrDiscarded = errors.New("wizard result discarded")

// TransitionFunc observes every applied transition.
type TransitionFunc func(from, to Machine, ev Event)

// Runner drives a Machine against the landing API the way the page does.
// Only one request is in flight at a time: a submission while busy is
// rejected with ErrInvalidTransition.
type Runner struct {
	api API

	mu      sync.Mutex
	machine Machine
	observe TransitionFunc
}

// NewRunner creates a Runner in the initial state. observe may be nil.
func NewRunner(api API, observe TransitionFunc) *Runner {
	return &Runner{
		api:     api,
		machine: New(),
		observe: observe,
	}
}

// Machine returns the current machine.
func (r *Runner) Machine() Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine
}

// Apply feeds ev to the machine.
func (r *Runner) Apply(ev Event) (Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(ev)
}

// must be called with mu held
func (r *Runner) apply(ev Event) (Machine, error) {
	from := r.machine
	to, err := Transition(from, ev)
	if err != nil {
		return from, err
	}
	r.machine = to
	if r.observe != nil {
		r.observe(from, to, ev)
	}
	return to, nil
}

// SubmitEmail verifies email and moves to feedback, not-verified or
// error-verify. API failures end in error-verify and are not returned.
func (r *Runner) SubmitEmail(ctx context.Context, email string) (Machine, error) {
	if _, err := r.Apply(SubmitEmail{Email: email}); err != nil {
		return r.Machine(), err
	}

	verified, err := r.api.Verify(ctx, email)

	r.mu.Lock()
	defer r.mu.Unlock()

	var ev Event = VerifyResult{Verified: verified}
	if err != nil {
		ev = VerifyFailed{Err: err}
	}
	m, terr := r.apply(ev)
	if terr != nil {
		return m, ErrDiscarded
	}
	return m, nil
}

// SubmitFeedback sends the feedback from the verified email and moves to
// success or error-feedback. The warning is the server's, when it
// accepted the feedback without forwarding it.
//
// A payload the server would reject is refused locally with a
// *validation.Error; the machine stays on the feedback screen and no
// request is sent.
func (r *Runner) SubmitFeedback(ctx context.Context, kind, message string) (Machine, string, error) {
	m, err := r.startFeedback(kind, message)
	if err != nil {
		return m, "", err
	}

	warning, err := r.api.SendFeedback(ctx, m.VerifiedEmail, kind, message)

	r.mu.Lock()
	defer r.mu.Unlock()

	var ev Event = FeedbackSent{}
	if err != nil {
		ev = FeedbackFailed{Err: err}
		warning = ""
	}
	m, terr := r.apply(ev)
	if terr != nil {
		return m, "", ErrDiscarded
	}
	return m, warning, nil
}

func (r *Runner) startFeedback(kind, message string) (Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.machine.State == StateFeedback {
		in := validation.FeedbackInput{Email: r.machine.VerifiedEmail, Type: kind, Message: message}
		if _, err := validation.ValidateFeedback(in); err != nil {
			return r.machine, err
		}
	}
	return r.apply(SubmitFeedback{Type: kind, Message: message})
}

// Retry leaves the not-verified screen.
func (r *Runner) Retry() (Machine, error) {
	return r.Apply(Retry{})
}

// Back returns to the verification form, forgetting the verified email.
func (r *Runner) Back() (Machine, error) {
	return r.Apply(Back{})
}
