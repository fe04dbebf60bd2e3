package storage

import (
	"context"
	"time"

	"github.com/couplestools/accounts/internal/models"
)

// UserStorage defines the interface for account persistence
type UserStorage interface {
	// CreateUser creates a new account.
	// Returns ErrUsernameTaken or ErrEmailTaken on a uniqueness violation.
	CreateUser(ctx context.Context, user *models.Account) error

	// GetUserByUsername retrieves an account by username.
	// Returns ErrUserNotFound if the account doesn't exist.
	GetUserByUsername(ctx context.Context, username string) (*models.Account, error)

	// GetUserByEmail retrieves an account by email.
	// Returns ErrUserNotFound if the account doesn't exist.
	GetUserByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetUserByID retrieves an account by ID.
	// Returns ErrUserNotFound if the account doesn't exist.
	GetUserByID(ctx context.Context, userID string) (*models.Account, error)

	// UpdatePassword replaces the account's password hash and, in the
	// same transaction, blacklists every outstanding refresh token for
	// that account. Writing a hash identical to the stored one is a
	// no-op and leaves outstanding tokens untouched. Returns the number
	// of tokens blacklisted.
	//
	// Callers must never update the password hash through any other
	// path: the revocation side effect is part of this operation's
	// contract.
	UpdatePassword(ctx context.Context, userID, newHash string) (int, error)

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error

	// SetActive toggles the account's active flag. Accounts are never
	// hard-deleted; deactivation is the only removal mechanism.
	SetActive(ctx context.Context, userID string, active bool) error
}
