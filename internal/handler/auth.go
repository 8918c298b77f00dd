package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/exptrack/exptrack/internal/handler/dto"
	"github.com/exptrack/exptrack/internal/middleware"
	"github.com/exptrack/exptrack/internal/service"
)

// Authenticator registers accounts and exchanges credentials for tokens.
type Authenticator interface {
	Register(ctx context.Context, input service.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// AuthHandler handles HTTP requests for account operations.
type AuthHandler struct {
	svc    Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	var errs middleware.FieldErrors
	errs.Check("name", middleware.ValidateName(req.Name))
	errs.Check("email", middleware.ValidateEmail(req.Email))
	errs.Check("password", middleware.ValidatePassword(req.Password))
	if !errs.Empty() {
		writeValidationErrors(w, errs)
		return
	}

	token, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_registered",
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	var errs middleware.FieldErrors
	errs.Check("email", middleware.ValidateEmail(req.Email))
	errs.Check("password", middleware.ValidatePasswordPresent(req.Password))
	if !errs.Empty() {
		writeValidationErrors(w, errs)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

// handleServiceError maps service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmailExists):
		writeMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid Credentials")
	default:
		writeInternalError(w, r, h.logger, err)
	}
}
