// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// SignupRequest is the body of POST /signup and POST /verify.
type SignupRequest struct {
	Email string `json:"email"`
}

// SignupResponse is returned for a new beta tester.
type SignupResponse struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contactId"`
}

// CountResponse is returned by GET /signup.
type CountResponse struct {
	Count int `json:"count"`
}

// VerifyResponse is returned by POST /verify.
type VerifyResponse struct {
	Verified bool `json:"verified"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	Email   string `json:"email"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FeedbackResponse is returned for accepted feedback.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
