package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/conteo/landing/internal/handler/dto"
	"github.com/conteo/landing/internal/middleware"
	"github.com/conteo/landing/internal/service"
	"github.com/conteo/landing/internal/validation"
)

// BetaHandler handles the beta program form endpoints.
type BetaHandler struct {
	svc    *service.BetaService
	logger *slog.Logger
}

// NewBetaHandler creates a new BetaHandler.
func NewBetaHandler(svc *service.BetaService, logger *slog.Logger) *BetaHandler {
	return &BetaHandler{
		svc:    svc,
		logger: logger,
	}
}

// Signup handles POST /signup.
func (h *BetaHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if tooLarge, err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, tooLarge, validation.MsgInvalidEmail)
		return
	}

	res, err := h.svc.Signup(r.Context(), req.Email)
	if err != nil {
		h.handleSignupError(w, r, err)
		return
	}

	h.logger.Info("beta_signup",
		"contact_id", res.ContactID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.SignupResponse{
		Success:   true,
		ContactID: res.ContactID,
	})
}

// Count handles GET /signup.
func (h *BetaHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Count(r.Context())
	if err != nil {
		h.logError(r, "beta count failed", err)
		writeError(w, http.StatusInternalServerError, MsgCountFailed)
		return
	}
	writeJSON(w, http.StatusOK, dto.CountResponse{Count: n})
}

// Verify handles POST /verify.
func (h *BetaHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if tooLarge, err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, tooLarge, MsgVerifyInvalid)
		return
	}

	verified, err := h.svc.Verify(r.Context(), req.Email)
	if err != nil {
		switch {
		case validation.IsValidationError(err):
			writeError(w, http.StatusBadRequest, MsgVerifyInvalid)
		case errors.Is(err, service.ErrVerify):
			h.logError(r, "beta verify failed", err)
			writeError(w, http.StatusInternalServerError, MsgVerifyFailed)
		default:
			h.logError(r, "beta verify error", err)
			writeError(w, http.StatusInternalServerError, MsgInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyResponse{Verified: verified})
}

// Feedback handles POST /feedback.
func (h *BetaHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req dto.FeedbackRequest
	if tooLarge, err := decodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, tooLarge, validation.MsgInvalidPayload)
		return
	}

	res, err := h.svc.SubmitFeedback(r.Context(), validation.FeedbackInput{
		Email:   req.Email,
		Type:    req.Type,
		Message: req.Message,
	})
	if err != nil {
		if validation.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, validation.MessageOf(err, validation.MsgInvalidPayload))
			return
		}
		h.logError(r, "feedback error", err)
		writeError(w, http.StatusInternalServerError, MsgFeedbackFailed)
		return
	}

	writeJSON(w, http.StatusOK, dto.FeedbackResponse{
		Success: true,
		Warning: res.Warning,
	})
}

// handleSignupError maps signup errors to HTTP responses.
func (h *BetaHandler) handleSignupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case validation.IsValidationError(err):
		writeError(w, http.StatusBadRequest, validation.MessageOf(err, validation.MsgInvalidEmail))
	case errors.Is(err, service.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, MsgAlreadyRegistered)
	case errors.Is(err, service.ErrAddContact):
		h.logError(r, "beta signup failed", err)
		writeError(w, http.StatusInternalServerError, MsgAddContactFailed)
	default:
		h.logError(r, "beta signup error", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
	}
}

func (h *BetaHandler) writeDecodeError(w http.ResponseWriter, tooLarge bool, message string) {
	if tooLarge {
		writeError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		return
	}
	writeError(w, http.StatusBadRequest, message)
}

func (h *BetaHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
