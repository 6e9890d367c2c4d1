package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/conteo/landing/internal/handler/dto"
	"github.com/conteo/landing/internal/provider"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 64 << 10

// APIError is a non-2xx answer from the landing API.
type APIError struct {
	StatusCode int
	// Message is the server's error text, empty when the body had none.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("landing api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("landing api: status %d: %s", e.StatusCode, e.Message)
}

// API is the part of the landing API the wizard talks to.
type API interface {
	Verify(ctx context.Context, email string) (bool, error)
	SendFeedback(ctx context.Context, email, kind, message string) (warning string, err error)
}

// HTTPClient calls the landing API over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the API at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    provider.NewHTTPClient(timeout),
	}
}

// Verify reports whether email is registered for the beta.
func (c *HTTPClient) Verify(ctx context.Context, email string) (bool, error) {
	var resp dto.VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/verify", dto.SignupRequest{Email: email}, &resp); err != nil {
		return false, err
	}
	return resp.Verified, nil
}

// SendFeedback posts a feedback message. The returned warning is set when
// the server accepted the feedback but could not forward it.
func (c *HTTPClient) SendFeedback(ctx context.Context, email, kind, message string) (string, error) {
	req := dto.FeedbackRequest{Email: email, Type: kind, Message: message}
	var resp dto.FeedbackResponse
	if err := c.do(ctx, http.MethodPost, "/feedback", req, &resp); err != nil {
		return "", err
	}
	return resp.Warning, nil
}

// Signup registers email for the beta and returns the contact ID.
func (c *HTTPClient) Signup(ctx context.Context, email string) (string, error) {
	var resp dto.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/signup", dto.SignupRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.ContactID, nil
}

// Count returns the number of registered beta testers.
func (c *HTTPClient) Count(ctx context.Context) (int, error) {
	var resp dto.CountResponse
	if err := c.do(ctx, http.MethodGet, "/signup", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp dto.ErrorResponse
		if err := json.Unmarshal(data, &errResp); err != nil {
			// Not an answer from the API (proxy page, truncated body).
			return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, errUnreadableResponse)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, errUnreadableResponse, err)
	}
	return nil
}

var errUnreadableResponse = errors.New("unreadable response")
