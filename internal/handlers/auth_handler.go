package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskearn/ledger/internal/logging"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

type authenticator interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth      authenticator
	validator *services.ValidationHelper
	logger    *zap.Logger
}

func NewAuthHandler(auth authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: services.NewValidationHelper(),
		logger:    logging.OrNop(logger).Named("auth"),
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates an intern account, optionally under the owner of a referral code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration request"
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse "Username taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	resp, err := h.auth.Register(r.Context(), req)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusCreated, resp)
}

// Login handles user authentication
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Login request"
// @Success 200 {object} services.AuthResponse
// @Failure 401 {object} services.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	resp, err := h.auth.Login(r.Context(), req)
	if err != nil {
		sendError(w, h.logger, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

// Logout revokes the bearer token
// @Summary Logout user
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.auth.Logout(r.Context(), token); err != nil {
		sendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
