// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Contact is a beta tester record held by the email/contact provider.
// This service never mutates or deletes contacts once created.
type Contact struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Unsubscribed bool      `json:"unsubscribed"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// MatchesEmail reports whether the contact's address equals email,
// ignoring case.
func (c Contact) MatchesEmail(email string) bool {
	return strings.EqualFold(c.Email, email)
}

// ContainsEmail reports whether any contact in the list matches email,
// ignoring case.
func ContainsEmail(contacts []Contact, email string) bool {
	for _, c := range contacts {
		if c.MatchesEmail(email) {
			return true
		}
	}
	return false
}
