package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/conteo/landing/internal/metrics"
	"github.com/conteo/landing/internal/model"
)

// DefaultBaseURL is the public Resend API endpoint.
const DefaultBaseURL = "https://api.resend.com"

const (
	userAgent        = "conteo-landing/1.0"
	maxResponseBytes = 4 << 20
	maxErrorBytes    = 16 << 10
)

// createdAtLayouts covers the timestamp shapes the contacts API has been
// seen to return.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05-07",
}

// ClientConfig configures a Client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	AudienceID string
	Timeout    time.Duration
	HTTPClient *http.Client
	Recorder   metrics.Recorder
}

// Client is a Directory and Mailer backed by the Resend REST API.
type Client struct {
	apiKey       string
	baseURL      string
	contactsPath string
	http         *http.Client
	metrics      metrics.Recorder
}

// NewClient creates a provider client. The API key is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("provider: API key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("provider: invalid base URL: %w", err)
	}

	contactsPath := "/contacts"
	if cfg.AudienceID != "" {
		contactsPath = "/audiences/" + url.PathEscape(cfg.AudienceID) + "/contacts"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}

	recorder := cfg.Recorder
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      baseURL,
		contactsPath: contactsPath,
		http:         httpClient,
		metrics:      recorder,
	}, nil
}

// contactResponse is the contact object as returned by the API.
type contactResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
	CreatedAt    string `json:"created_at"`
}

func (r contactResponse) toModel() model.Contact {
	return model.Contact{
		ID:           r.ID,
		Email:        r.Email,
		Unsubscribed: r.Unsubscribed,
		CreatedAt:    parseCreatedAt(r.CreatedAt),
	}
}

type listResponse struct {
	Data []contactResponse `json:"data"`
}

type createContactRequest struct {
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
}

type createResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// FindByEmail looks a contact up by its exact email address.
func (c *Client) FindByEmail(ctx context.Context, email string) (*model.Contact, error) {
	var out contactResponse
	err := c.do(ctx, OpFind, http.MethodGet, c.contactsPath+"/"+url.PathEscape(email), nil, &out, isNotFound)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, nil
	}

	contact := out.toModel()
	return &contact, nil
}

// Create adds email to the contact list as subscribed.
func (c *Client) Create(ctx context.Context, email string) (*model.Contact, error) {
	var out createResponse
	err := c.do(ctx, OpCreate, http.MethodPost, c.contactsPath, createContactRequest{Email: email}, &out)
	if err != nil {
		if isAlreadyExists(err) {
			return nil, fmt.Errorf("%w: %s", ErrContactExists, email)
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%s: %w: response missing contact id", OpCreate, ErrProvider)
	}

	return &model.Contact{ID: out.ID, Email: email}, nil
}

// List returns the first page of contacts. The API's default page size
// applies and no further pages are requested.
func (c *Client) List(ctx context.Context) ([]model.Contact, error) {
	var out listResponse
	if err := c.do(ctx, OpList, http.MethodGet, c.contactsPath, nil, &out); err != nil {
		return nil, err
	}

	contacts := make([]model.Contact, 0, len(out.Data))
	for _, r := range out.Data {
		contacts = append(contacts, r.toModel())
	}
	return contacts, nil
}

// Send delivers one email.
func (c *Client) Send(ctx context.Context, email model.Email) error {
	var out createResponse
	return c.do(ctx, OpSend, http.MethodPost, "/emails", email, &out)
}

// Ping checks that the API is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, c.contactsPath+"?limit=1", nil, nil)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// do performs one JSON round-trip. A nil out discards the body. Errors
// matched by one of expected are normal answers for op and are recorded
// as successful calls.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any, expected ...func(error) bool) (err error) {
	start := time.Now()
	defer func() {
		status := metrics.StatusSuccess
		if err != nil && !matchesAny(err, expected) {
			status = metrics.StatusFailed
		}
		c.metrics.ObserveProviderCall(op, status, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(op, resp)
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: decode response: %w", op, ErrProvider, err)
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	var body errorResponse
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Name = body.Name
		apiErr.Message = body.Message
	}
	return apiErr
}

func matchesAny(err error, preds []func(error) bool) bool {
	for _, pred := range preds {
		if pred(err) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func isAlreadyExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(apiErr.Message), "already exists")
	}
	return false
}

func parseCreatedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
