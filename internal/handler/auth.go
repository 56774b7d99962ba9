package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/handler/dto"
	"github.com/authgate/authgate/internal/middleware"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/service"
)

// Opaque messages returned for internal failures.
const (
	msgRegistrationFailed = "Registration failed"
	msgLoginFailed        = "Login failed"
	msgLookupFailed       = "Lookup failed"
	msgInvalidJSON        = "Invalid request body"
)

// AuthService is the business logic behind the auth endpoints.
type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Me(ctx context.Context, token string) (*model.UserContext, error)
}

// AuthHandler handles HTTP requests for register, login and me.
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Plan:        req.Plan,
		Role:        req.Role,
		CompanyID:   req.CompanyID,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		h.handleServiceError(w, r, err, msgRegistrationFailed)
		return
	}

	middleware.SetUserID(r.Context(), result.UserContext.UserID)
	h.logger.Info("user_registered",
		"user_id", result.UserContext.UserID,
		"request_id", middleware.GetRequestID(r.Context()),
		"has_company", result.UserContext.Company != nil,
	)

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Success:     true,
		Token:       result.Token,
		UserContext: result.UserContext,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warn("login_failed",
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		h.handleServiceError(w, r, err, msgLoginFailed)
		return
	}
	middleware.SetUserID(r.Context(), result.UserContext.UserID)

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Success:     true,
		Token:       result.Token,
		UserContext: result.UserContext,
	})
}

// Me handles GET /api/me.
// The bearer token is placed in the context by middleware.BearerToken.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, err := h.svc.Me(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrAuth) {
			h.logger.Warn("token_rejected",
				"reason", err.Error(),
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		h.handleServiceError(w, r, err, msgLookupFailed)
		return
	}
	middleware.SetUserID(r.Context(), userCtx.UserID)

	writeJSON(w, http.StatusOK, dto.MeResponse{
		Success:     true,
		UserContext: *userCtx,
	})
}

// decodeJSON decodes the request body into dst and writes the error response
// on failure. A body cut off by middleware.MaxBodySize yields 413.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return true
	case middleware.IsBodyTooLarge(err):
		middleware.WriteBodyTooLarge(w)
	default:
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
	}
	return false
}

// handleServiceError maps service errors to HTTP responses.
// Internal errors are logged and replaced with fallback.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("internal_error",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
	writeError(w, status, service.MessageOf(err, fallback))
}

func statusForError(err error) int {
	switch service.KindOf(err) {
	case service.ErrValidation, service.ErrConflict:
		return http.StatusBadRequest
	case service.ErrAuth:
		return http.StatusUnauthorized
	case service.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
