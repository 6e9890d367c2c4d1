package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/conteo/landing/internal/model"
)

// Memory is an in-process Directory and Mailer. Lookups are exact and
// case-sensitive like the real API; duplicate creates are rejected.
type Memory struct {
	mu       sync.Mutex
	contacts map[string]model.Contact
	order    []string
	sent     []model.Email
	failures map[string]error
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		contacts: make(map[string]model.Contact),
		failures: make(map[string]error),
	}
}

// Fail makes every subsequent call to op return err. A nil err clears it.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Seed inserts contacts directly, skipping ones that already exist.
func (m *Memory) Seed(emails ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, email := range emails {
		if _, ok := m.contacts[email]; !ok {
			m.insert(email)
		}
	}
}

// FindByEmail returns the contact with exactly this email, or nil.
func (m *Memory) FindByEmail(ctx context.Context, email string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpFind); err != nil {
		return nil, err
	}

	c, ok := m.contacts[email]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Create adds a subscribed contact.
func (m *Memory) Create(ctx context.Context, email string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpCreate); err != nil {
		return nil, err
	}

	if _, ok := m.contacts[email]; ok {
		return nil, fmt.Errorf("%w: %s", ErrContactExists, email)
	}

	c := m.insert(email)
	return &c, nil
}

// List returns all contacts in insertion order.
func (m *Memory) List(ctx context.Context) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpList); err != nil {
		return nil, err
	}

	out := make([]model.Contact, 0, len(m.order))
	for _, email := range m.order {
		out = append(out, m.contacts[email])
	}
	return out, nil
}

// Send records the email.
func (m *Memory) Send(ctx context.Context, email model.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpSend); err != nil {
		return err
	}

	email.To = append([]string(nil), email.To...)
	m.sent = append(m.sent, email)
	return nil
}

// SentEmails returns a copy of every email delivered so far.
func (m *Memory) SentEmails() []model.Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]model.Email(nil), m.sent...)
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// insert must be called with mu held.
func (m *Memory) insert(email string) model.Contact {
	c := model.Contact{
		ID:        ulid.Make().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	m.contacts[email] = c
	m.order = append(m.order, email)
	return c
}

// failure must be called with mu held.
func (m *Memory) failure(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
