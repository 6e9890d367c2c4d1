// Package provider talks to the external email/contact service that owns the
// beta contact list and delivers transactional email.
//
// Two implementations are available: Client speaks the Resend REST API and
// Memory keeps everything in-process for tests and local development.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/conteo/landing/internal/model"
)

// Sentinel errors for provider operations.
var (
	// ErrProvider marks any transport or non-2xx failure from the provider.
	ErrProvider = errors.New("provider request failed")
	// ErrContactExists is returned by Create when the email is already in
	// the contact list.
	ErrContactExists = errors.New("contact already exists")
)

// Directory is the contact list view of the provider.
type Directory interface {
	// FindByEmail returns the contact with exactly this email, or nil when
	// the provider does not know it.
	FindByEmail(ctx context.Context, email string) (*model.Contact, error)
	// Create adds a subscribed contact.
	Create(ctx context.Context, email string) (*model.Contact, error)
	// List returns the contacts the provider hands back in a single page.
	List(ctx context.Context) ([]model.Contact, error)
}

// Mailer sends a single transactional email.
type Mailer interface {
	Send(ctx context.Context, email model.Email) error
}

// APIError describes a non-2xx answer from the provider.
type APIError struct {
	Op         string
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: provider returned HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: provider returned HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap lets callers match any APIError against ErrProvider.
func (e *APIError) Unwrap() error {
	return ErrProvider
}

// Operation names, used for metrics labels and Memory failure injection.
const (
	OpFind   = "contacts.get"
	OpCreate = "contacts.create"
	OpList   = "contacts.list"
	OpSend   = "emails.send"
)
