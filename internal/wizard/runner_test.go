package wizard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conteo/landing/internal/validation"
)

type recordedTransition struct {
	from, to State
	event    string
}

func recordTransitions() (*[]recordedTransition, TransitionFunc) {
	var got []recordedTransition
	return &got, func(from, to Machine, ev Event) {
		got = append(got, recordedTransition{from: from.State, to: to.State, event: EventName(ev)})
	}
}

func TestRunner_HappyPath(t *testing.T) {
	srv := fakeLandingAPI(t, "new@x.com")
	transitions, observe := recordTransitions()
	r := NewRunner(NewHTTPClient(srv.URL, time.Second), observe)
	ctx := context.Background()

	m, err := r.SubmitEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, StateFeedback, m.State)
	assert.Equal(t, "new@x.com", m.VerifiedEmail)
	assert.Equal(t, 2, m.Step())

	m, warning, err := r.SubmitFeedback(ctx, "bug", "It crashed when I tapped.")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.True(t, m.Done())

	assert.Equal(t, []recordedTransition{
		{StateVerify, StateLoadingVerify, "submit-email"},
		{StateLoadingVerify, StateFeedback, "verify-result"},
		{StateFeedback, StateLoadingFeedback, "submit-feedback"},
		{StateLoadingFeedback, StateSuccess, "feedback-sent"},
	}, *transitions)
}

func TestRunner_NotVerifiedThenRetry(t *testing.T) {
	srv := fakeLandingAPI(t, "new@x.com")
	r := NewRunner(NewHTTPClient(srv.URL, time.Second), nil)
	ctx := context.Background()

	m, err := r.SubmitEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, StateNotVerified, m.State)

	_, _, err = r.SubmitFeedback(ctx, "bug", "It crashed when I tapped.")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	m, err = r.Retry()
	require.NoError(t, err)
	assert.Equal(t, StateVerify, m.State)

	m, err = r.SubmitEmail(ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, StateFeedback, m.State)
}

// scriptedAPI verifies every email and answers SendFeedback calls from errs
// in order, succeeding once they run out.
type scriptedAPI struct {
	mu    sync.Mutex
	errs  []error
	sends int
}

func (s *scriptedAPI) Verify(ctx context.Context, email string) (bool, error) {
	return true, nil
}

func (s *scriptedAPI) SendFeedback(ctx context.Context, email, kind, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return "", nil
}

func (s *scriptedAPI) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sends
}

func TestRunner_FeedbackErrorThenResubmit(t *testing.T) {
	api := &scriptedAPI{errs: []error{
		&APIError{StatusCode: http.StatusInternalServerError, Message: "Erreur lors de l'envoi du feedback"},
	}}
	r := NewRunner(api, nil)
	ctx := context.Background()

	_, err := r.SubmitEmail(ctx, "new@x.com")
	require.NoError(t, err)

	m, _, err := r.SubmitFeedback(ctx, "bug", "It crashed when I tapped.")
	require.NoError(t, err)
	assert.Equal(t, StateErrorFeedback, m.State)
	assert.Equal(t, "Erreur lors de l'envoi du feedback", m.ErrorMessage)

	m, _, err = r.SubmitFeedback(ctx, "bug", "It crashed when I tapped.")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, m.State)
	assert.Empty(t, m.ErrorMessage)
	assert.Equal(t, 2, api.sent())
}

func TestRunner_FeedbackWarning(t *testing.T) {
	srv := fakeLandingAPI(t, "new@x.com")
	r := NewRunner(NewHTTPClient(srv.URL, time.Second), nil)
	ctx := context.Background()

	_, err := r.SubmitEmail(ctx, "new@x.com")
	require.NoError(t, err)

	m, warning, err := r.SubmitFeedback(ctx, "other", "Dark mode please.")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, m.State)
	assert.NotEmpty(t, warning)
}

func TestRunner_FeedbackRejectedLocally(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		message string
		want    string
	}{
		{name: "message too short", kind: "bug", message: "short", want: validation.MsgMessageTooShort},
		{name: "message too long", kind: "bug", message: strings.Repeat("a", 1001), want: validation.MsgMessageTooLong},
		{name: "unknown type", kind: "praise", message: "It crashed when I tapped.", want: validation.MsgInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &scriptedAPI{}
			transitions, observe := recordTransitions()
			r := NewRunner(api, observe)
			ctx := context.Background()

			_, err := r.SubmitEmail(ctx, "new@x.com")
			require.NoError(t, err)

			m, warning, err := r.SubmitFeedback(ctx, tt.kind, tt.message)
			require.Error(t, err)
			assert.True(t, validation.IsValidationError(err))
			assert.Equal(t, tt.want, validation.MessageOf(err, ""))
			assert.Empty(t, warning)

			assert.Equal(t, StateFeedback, m.State)
			assert.Equal(t, "new@x.com", m.VerifiedEmail)
			assert.Equal(t, StateFeedback, r.Machine().State)
			assert.Zero(t, api.sent())
			assert.Len(t, *transitions, 2)

			m, _, err = r.SubmitFeedback(ctx, "bug", "It crashed when I tapped.")
			require.NoError(t, err)
			assert.Equal(t, StateSuccess, m.State)
			assert.Equal(t, 1, api.sent())
		})
	}
}

func TestRunner_BackForgetsEmail(t *testing.T) {
	srv := fakeLandingAPI(t, "new@x.com")
	r := NewRunner(NewHTTPClient(srv.URL, time.Second), nil)

	_, err := r.SubmitEmail(context.Background(), "new@x.com")
	require.NoError(t, err)

	m, err := r.Back()
	require.NoError(t, err)
	assert.Equal(t, New(), m)
}

func TestRunner_ServerUnreachable(t *testing.T) {
	r := NewRunner(NewHTTPClient("http://127.0.0.1:1", time.Second), nil)

	m, err := r.SubmitEmail(context.Background(), "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, StateErrorVerify, m.State)
	assert.Equal(t, MsgNetworkError, m.ErrorMessage)
}

// blockingAPI holds Verify and SendFeedback until release is closed.
type blockingAPI struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAPI) Verify(ctx context.Context, email string) (bool, error) {
	close(b.started)
	<-b.release
	return true, nil
}

func (b *blockingAPI) SendFeedback(ctx context.Context, email, kind, message string) (string, error) {
	close(b.started)
	<-b.release
	return "", nil
}

func TestRunner_RejectsSubmitWhileBusy(t *testing.T) {
	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(api, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.SubmitEmail(context.Background(), "a@x.com")
	}()

	<-api.started
	assert.True(t, r.Machine().Busy())

	_, err := r.SubmitEmail(context.Background(), "b@x.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	close(api.release)
	wg.Wait()

	m := r.Machine()
	assert.Equal(t, StateFeedback, m.State)
	assert.Equal(t, "a@x.com", m.VerifiedEmail)
}

func TestRunner_ResultDiscardedAfterBack(t *testing.T) {
	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(api, nil)

	_, err := r.Apply(SubmitEmail{Email: "a@x.com"})
	require.NoError(t, err)
	_, err = r.Apply(VerifyResult{Verified: true})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, _, err := r.SubmitFeedback(context.Background(), "bug", "It crashed when I tapped.")
		errCh <- err
	}()

	<-api.started
	_, err = r.Back()
	require.NoError(t, err)
	close(api.release)

	assert.True(t, errors.Is(<-errCh, ErrDiscarded))
	assert.Equal(t, New(), r.Machine())
}
