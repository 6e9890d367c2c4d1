// Package validation checks the public form payloads.
//
// Rules are declared as go-playground/validator struct tags; only the first
// failing rule is reported, with a message meant to be shown verbatim to the
// visitor.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Feedback message bounds, in characters.
const (
	MinMessageLength = 10
	MaxMessageLength = 1000
)

// User-facing messages.
const (
	MsgInvalidEmail      = "Format d'email invalide"
	MsgInvalidType       = "Type de feedback invalide"
	MsgMessageTooShort   = "Le message doit contenir au moins 10 caractères"
	MsgMessageTooLong    = "Le message ne peut pas dépasser 1000 caractères"
	MsgInvalidPayload    = "Données invalides"
	msgFallbackFieldRule = "Champ invalide"
)

// FeedbackType tags a feedback message.
type FeedbackType string

const (
	FeedbackBug     FeedbackType = "bug"
	FeedbackFeature FeedbackType = "feature"
	FeedbackOther   FeedbackType = "other"
)

// Label returns the display label used in notification emails.
func (t FeedbackType) Label() string {
	switch t {
	case FeedbackBug:
		return "🐛 Bug"
	case FeedbackFeature:
		return "💡 Suggestion"
	default:
		return "📝 Autre"
	}
}

// SignupInput is the raw body of a signup or verification request.
type SignupInput struct {
	Email string `json:"email" validate:"required,email"`
}

// FeedbackInput is the raw body of a feedback request.
type FeedbackInput struct {
	Email   string `json:"email" validate:"required,email"`
	Type    string `json:"type" validate:"required,oneof=bug feature other"`
	Message string `json:"message" validate:"min=10,max=1000"`
}

// Feedback is a FeedbackInput that passed validation.
type Feedback struct {
	Email   string
	Type    FeedbackType
	Message string
}

// Error reports the first failing rule of a payload.
type Error struct {
	Field   string
	Rule    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a *Error.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// MessageOf returns the user-facing message carried by a validation error,
// or fallback when err is not one.
func MessageOf(err error, fallback string) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	return fallback
}

var validate = validator.New()

// ValidateSignup checks a signup or verification payload.
func ValidateSignup(in SignupInput) (SignupInput, error) {
	if err := check(in); err != nil {
		return SignupInput{}, err
	}
	return in, nil
}

// ValidateEmail checks a bare email address.
func ValidateEmail(email string) error {
	_, err := ValidateSignup(SignupInput{Email: email})
	return err
}

// ValidateFeedback checks a feedback payload and returns its typed form.
func ValidateFeedback(in FeedbackInput) (Feedback, error) {
	if err := check(in); err != nil {
		return Feedback{}, err
	}
	return Feedback{
		Email:   in.Email,
		Type:    FeedbackType(in.Type),
		Message: in.Message,
	}, nil
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &Error{Field: "body", Rule: "struct", Message: MsgInvalidPayload}
	}

	fe := fieldErrs[0]
	return &Error{
		Field:   fe.Field(),
		Rule:    fe.Tag(),
		Message: messageFor(fe.Field(), fe.Tag()),
	}
}

func messageFor(field, rule string) string {
	switch field {
	case "Email":
		return MsgInvalidEmail
	case "Type":
		return MsgInvalidType
	case "Message":
		if rule == "max" {
			return MsgMessageTooLong
		}
		return MsgMessageTooShort
	}
	return msgFallbackFieldRule
}
