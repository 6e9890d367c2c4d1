// Package wizard implements the two-step feedback flow of the landing page:
// a tester first proves their email is registered for the beta, then sends
// a feedback message.
//
// The flow is an explicit state machine. Transition is the only way to move
// between states; every (state, event) pair it does not list is rejected
// with ErrInvalidTransition, which is also how a second submission while a
// request is in flight is refused.
package wizard

import (
	"errors"
	"fmt"
)

// State is a wizard screen.
type State string

// Wizard states.
const (
	StateVerify          State = "verify"
	StateNotVerified     State = "not-verified"
	StateFeedback        State = "feedback"
	StateLoadingVerify   State = "loading-verify"
	StateLoadingFeedback State = "loading-feedback"
	StateSuccess         State = "success"
	StateErrorVerify     State = "error-verify"
	StateErrorFeedback   State = "error-feedback"
)

// User-facing messages shown in the error states.
const (
	MsgNetworkError = "Impossible de se connecter au serveur"
	MsgGenericError = "Une erreur est survenue"
)

// ErrInvalidTransition is returned for an event the current state does not
// accept.
var ErrInvalidTransition = errors.New("invalid wizard transition")

// Event is something that happens to the wizard.
type Event interface {
	eventName() string
}

// SubmitEmail is the submission of the verification form.
type SubmitEmail struct{ Email string }

// VerifyResult is a successful answer from the verification endpoint.
type VerifyResult struct{ Verified bool }

// VerifyFailed is an HTTP or network failure of the verification call.
type VerifyFailed struct{ Err error }

// Retry leaves the not-verified screen.
type Retry struct{}

// SubmitFeedback is the submission of the feedback form.
type SubmitFeedback struct {
	Type    string
	Message string
}

// FeedbackSent is a successful answer from the feedback endpoint.
type FeedbackSent struct{}

// FeedbackFailed is an HTTP or network failure of the feedback call.
type FeedbackFailed struct{ Err error }

// Back returns from step 2 to the verification form.
type Back struct{}

func (SubmitEmail) eventName() string    { return "submit-email" }
func (VerifyResult) eventName() string   { return "verify-result" }
func (VerifyFailed) eventName() string   { return "verify-failed" }
func (Retry) eventName() string          { return "retry" }
func (SubmitFeedback) eventName() string { return "submit-feedback" }
func (FeedbackSent) eventName() string   { return "feedback-sent" }
func (FeedbackFailed) eventName() string { return "feedback-failed" }
func (Back) eventName() string           { return "back" }

// EventName returns a short stable name for ev, for logs and CLI output.
func EventName(ev Event) string {
	if ev == nil {
		return "<nil>"
	}
	return ev.eventName()
}

// Machine is the wizard state plus the data carried between screens.
type Machine struct {
	State State
	// VerifiedEmail is set once the email is known to be registered and is
	// the address the feedback is sent from.
	VerifiedEmail string
	// PendingEmail is the address being verified.
	PendingEmail string
	ErrorMessage string
}

// New returns a machine in its initial state.
func New() Machine {
	return Machine{State: StateVerify}
}

// Step reports which form is on screen: 1 for verification, 2 for feedback.
func (m Machine) Step() int {
	switch m.State {
	case StateFeedback, StateLoadingFeedback, StateErrorFeedback:
		return 2
	default:
		return 1
	}
}

// Busy reports whether a request is in flight.
func (m Machine) Busy() bool {
	return m.State == StateLoadingVerify || m.State == StateLoadingFeedback
}

// Done reports whether the session reached its terminal state.
func (m Machine) Done() bool {
	return m.State == StateSuccess
}

// Transition applies ev to m. On an unlisted pair it returns m unchanged
// and an error wrapping ErrInvalidTransition.
func Transition(m Machine, ev Event) (Machine, error) {
	next := m

	switch e := ev.(type) {
	case SubmitEmail:
		if m.State != StateVerify && m.State != StateErrorVerify {
			return m, invalid(m, ev)
		}
		next.State = StateLoadingVerify
		next.PendingEmail = e.Email
		next.ErrorMessage = ""

	case VerifyResult:
		if m.State != StateLoadingVerify {
			return m, invalid(m, ev)
		}
		if e.Verified {
			next.State = StateFeedback
			next.VerifiedEmail = m.PendingEmail
		} else {
			next.State = StateNotVerified
		}
		next.PendingEmail = ""

	case VerifyFailed:
		if m.State != StateLoadingVerify {
			return m, invalid(m, ev)
		}
		next.State = StateErrorVerify
		next.ErrorMessage = ErrorMessage(e.Err)

	case Retry:
		if m.State != StateNotVerified {
			return m, invalid(m, ev)
		}
		next.State = StateVerify

	case SubmitFeedback:
		if m.State != StateFeedback && m.State != StateErrorFeedback {
			return m, invalid(m, ev)
		}
		next.State = StateLoadingFeedback
		next.ErrorMessage = ""

	case FeedbackSent:
		if m.State != StateLoadingFeedback {
			return m, invalid(m, ev)
		}
		next.State = StateSuccess

	case FeedbackFailed:
		if m.State != StateLoadingFeedback {
			return m, invalid(m, ev)
		}
		next.State = StateErrorFeedback
		next.ErrorMessage = ErrorMessage(e.Err)

	case Back:
		if m.Step() != 2 {
			return m, invalid(m, ev)
		}
		next = New()

	default:
		return m, invalid(m, ev)
	}

	return next, nil
}

func invalid(m Machine, ev Event) error {
	return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, EventName(ev), m.State)
}

// ErrorMessage returns the text shown for a failed call: the server's error
// message when it sent one, MsgGenericError for an error response without
// one, and MsgNetworkError when no usable response arrived.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgGenericError
	}
	return MsgNetworkError
}
