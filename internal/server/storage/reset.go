package storage

import (
	"context"
	"time"

	"github.com/couplestools/accounts/internal/models"
)

// ResetStorage persists single-use password reset tokens. Only the
// SHA-256 hash of the raw token is ever stored.
type ResetStorage interface {
	// CreateResetToken stores a new reset token
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error

	// ConsumeResetToken atomically marks the token matching tokenHash
	// as used and returns it. Returns ErrResetTokenNotFound,
	// ErrResetTokenExpired or ErrResetTokenUsed; in all three cases no
	// state is modified.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error)

	// DeleteExpiredResetTokens removes reset tokens that expired before
	// now. Returns the number of removed tokens.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error)
}
