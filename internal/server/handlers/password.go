package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/couplestools/accounts/internal/crypto"
	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/mailer"
	"github.com/couplestools/accounts/internal/server/storage"
	"github.com/couplestools/accounts/internal/validation"
	"github.com/couplestools/accounts/pkg/api"
)

// PasswordHandler serves password change and password reset flows
type PasswordHandler struct {
	logger       *slog.Logger
	users        storage.UserStorage
	resets       storage.ResetStorage
	mail         mailer.Mailer
	resetTTL     time.Duration
	resetBaseURL string
}

// NewPasswordHandler creates a new password handler.
// resetBaseURL is the frontend page that consumes reset tokens; the
// single-use token is appended as a query parameter.
func NewPasswordHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	resets storage.ResetStorage,
	mail mailer.Mailer,
	resetTTL time.Duration,
	resetBaseURL string,
) *PasswordHandler {
	return &PasswordHandler{
		logger:       logger,
		users:        users,
		resets:       resets,
		mail:         mail,
		resetTTL:     resetTTL,
		resetBaseURL: resetBaseURL,
	}
}

// Change handles PUT /api/v1/auth/change-password
// Requires an authenticated caller; only the caller's own password can
// be changed. A successful change blacklists every outstanding refresh
// token for the account.
func (h *PasswordHandler) Change(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	callerID, ok := UserIDFromContext(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode change password request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	fields := map[string]string{}
	if req.OldPassword == "" {
		fields["old_password"] = "old password is required"
	}
	if req.NewPassword == "" {
		fields["new_password"] = "new password is required"
	}
	if req.NewPasswordConfirmation == "" {
		fields["new_password_confirmation"] = "password confirmation is required"
	}
	if len(fields) > 0 {
		sendFieldErrors(h.logger, w, fields, http.StatusBadRequest)
		return
	}

	callerUsername, _ := UsernameFromContext(ctx)
	if req.Username != "" && req.Username != callerUsername {
		h.logger.WarnContext(ctx, "password change denied for foreign account",
			slog.String("caller", callerUsername),
			slog.String("target", req.Username))
		sendError(h.logger, w,
			"you don't have permission to change password for this user",
			http.StatusForbidden)
		return
	}

	if req.NewPassword != req.NewPasswordConfirmation {
		sendFieldErrors(h.logger, w,
			map[string]string{"new_password": "password fields didn't match"},
			http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		sendFieldErrors(h.logger, w,
			map[string]string{"new_password": err.Error()},
			http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		sendFieldErrors(h.logger, w,
			map[string]string{"old_password": "old password is not correct"},
			http.StatusBadRequest)
		return
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	revoked, err := h.users.UpdatePassword(ctx, user.ID, hash)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
		slog.Int("tokens_revoked", revoked))

	sendJSON(h.logger, w, api.MessageResponse{Message: "password changed successfully"}, http.StatusOK)
}

// ResetRequest handles POST /api/v1/auth/password-reset
// Creates a single-use reset token and hands the email context to the
// mailer. Responds 200 regardless of whether the email matched an
// account, so the endpoint cannot be used to enumerate users.
func (h *PasswordHandler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reset request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" {
		sendFieldErrors(h.logger, w,
			map[string]string{"email": "email is required"},
			http.StatusBadRequest)
		return
	}

	accepted := api.MessageResponse{
		Message: "if the account exists, a password reset email has been sent",
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.InfoContext(ctx, "reset requested for unknown email")
			sendJSON(h.logger, w, accepted, http.StatusOK)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if !user.IsActive {
		h.logger.InfoContext(ctx, "reset requested for inactive account", slog.String("user_id", user.ID))
		sendJSON(h.logger, w, accepted, http.StatusOK)
		return
	}

	raw, hash, err := newResetToken()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate reset token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	token := &models.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(h.resetTTL),
	}

	if err := h.resets.CreateResetToken(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "failed to save reset token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	msg := mailer.ResetEmail{
		Username: user.Username,
		Email:    user.Email,
		ResetURL: fmt.Sprintf("%s?token=%s", h.resetBaseURL, url.QueryEscape(raw)),
	}

	if err := h.mail.SendPasswordReset(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to send reset email", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password reset token issued", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, accepted, http.StatusOK)
}

// ResetConfirm handles POST /api/v1/auth/password-reset/confirm
// Consumes a reset token and sets the new password, revoking all
// outstanding refresh tokens for the account.
func (h *PasswordHandler) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode reset confirm request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		sendFieldErrors(h.logger, w,
			map[string]string{"token": "reset token is required"},
			http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.Password); err != nil {
		sendFieldErrors(h.logger, w,
			map[string]string{"password": err.Error()},
			http.StatusBadRequest)
		return
	}

	token, err := h.resets.ConsumeResetToken(ctx, hashResetToken(req.Token), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrResetTokenNotFound),
			errors.Is(err, storage.ErrResetTokenExpired),
			errors.Is(err, storage.ErrResetTokenUsed):
			h.logger.WarnContext(ctx, "reset token rejected", slog.Any("error", err))
			sendError(h.logger, w, "invalid or expired reset token", http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to consume reset token", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	revoked, err := h.users.UpdatePassword(ctx, token.UserID, hash)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", token.UserID),
		slog.Int("tokens_revoked", revoked))

	sendJSON(h.logger, w, api.MessageResponse{Message: "password has been reset"}, http.StatusOK)
}

// newResetToken returns a random single-use token and its storage hash
func newResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate random token: %w", err)
	}

	raw = base64.URLEncoding.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

// hashResetToken derives the storage key for a raw reset token. Only
// this hash is persisted, never the token itself.
func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
