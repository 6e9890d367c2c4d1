// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/conteo/landing/internal/handler/dto"
)

// Error messages returned to the landing page.
const (
	MsgAlreadyRegistered = "Cet email est déjà inscrit"
	MsgAddContactFailed  = "Failed to add contact"
	MsgCountFailed       = "Failed to get count"
	MsgVerifyInvalid     = "Email invalide"
	MsgVerifyFailed      = "Failed to verify"
	MsgFeedbackFailed    = "Erreur serveur"
	MsgInternal          = "Internal server error"
	MsgBodyTooLarge      = "Request body too large"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message})
}

// decodeJSON reads a single JSON object from the request body. It reports
// whether the failure came from the body size limit.
func decodeJSON(r *http.Request, v any) (tooLarge bool, err error) {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		return errors.As(err, &maxErr), err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return false, errors.New("unexpected data after JSON object")
	}
	return false, nil
}
