package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/couplestools/accounts/internal/crypto"
	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/storage"
	"github.com/couplestools/accounts/internal/server/tokens"
	"github.com/couplestools/accounts/internal/validation"
	"github.com/couplestools/accounts/pkg/api"
)

// AuthHandler serves registration, login, logout and token refresh
type AuthHandler struct {
	logger *slog.Logger
	users  storage.UserStorage
	tokens *tokens.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(logger *slog.Logger, users storage.UserStorage, tokenService *tokens.Service) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		users:  users,
		tokens: tokenService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	fields := map[string]string{}
	if err := validation.ValidateUsername(req.Username); err != nil {
		fields["username"] = err.Error()
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		fields["password"] = err.Error()
	}
	if req.FirstName == "" {
		fields["first_name"] = "first name is required"
	}
	if req.LastName == "" {
		fields["last_name"] = "last name is required"
	}
	if len(fields) > 0 {
		h.logger.WarnContext(ctx, "invalid registration payload", slog.Int("field_errors", len(fields)))
		sendFieldErrors(h.logger, w, fields, http.StatusBadRequest)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.Account{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			h.logger.WarnContext(ctx, "username already taken", slog.String("username", req.Username))
			sendFieldErrors(h.logger, w,
				map[string]string{"username": "a user with that username already exists"},
				http.StatusBadRequest)
		case errors.Is(err, storage.ErrEmailTaken):
			h.logger.WarnContext(ctx, "email already taken", slog.String("username", req.Username))
			sendFieldErrors(h.logger, w,
				map[string]string{"email": "a user with that email already exists"},
				http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	resp := api.RegisterResponse{
		UserID:  user.ID,
		Message: "User " + user.Username + " created successfully",
	}

	sendJSON(h.logger, w, resp, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		sendError(h.logger, w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("username", req.Username))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Deactivated accounts get the same answer as bad passwords so the
	// response does not reveal account state
	if !user.IsActive {
		h.logger.WarnContext(ctx, "login failed: account inactive", slog.String("username", req.Username))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := crypto.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("username", req.Username))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	pair, err := h.tokens.IssuePair(ctx, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token pair", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Not critical, log and continue
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	resp := api.TokenPairResponse{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		ExpiresIn:    pair.AccessExpiresIn,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout
// Blacklists the presented refresh token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode logout request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		sendError(h.logger, w, "refresh token is required", http.StatusBadRequest)
		return
	}

	if err := h.tokens.BlacklistRefresh(ctx, req.RefreshToken); err != nil {
		h.sendTokenError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "refresh token blacklisted")

	sendJSON(h.logger, w, api.MessageResponse{Message: "logged out"}, http.StatusOK)
}

// Refresh handles POST /api/v1/auth/refresh
// Mints a new access token from a valid refresh token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		sendError(h.logger, w, "refresh token is required", http.StatusBadRequest)
		return
	}

	access, expiresIn, err := h.tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.sendTokenError(ctx, w, err)
		return
	}

	resp := api.AccessTokenResponse{
		AccessToken: access,
		ExpiresIn:   expiresIn,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// sendTokenError maps token service errors to HTTP responses
func (h *AuthHandler) sendTokenError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tokens.ErrTokenExpired):
		sendError(h.logger, w, "token expired", http.StatusUnauthorized)
	case errors.Is(err, tokens.ErrTokenBlacklisted):
		sendError(h.logger, w, "token blacklisted", http.StatusUnauthorized)
	case errors.Is(err, tokens.ErrTokenMalformed):
		sendError(h.logger, w, "token invalid", http.StatusUnauthorized)
	default:
		h.logger.ErrorContext(ctx, "token operation failed", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}
