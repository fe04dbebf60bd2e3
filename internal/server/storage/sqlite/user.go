package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/storage"
)

// CreateUser creates a new account
func (s *Storage) CreateUser(ctx context.Context, user *models.Account) error {
	query := `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash,
			is_active, is_staff, is_superuser, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.CreatedAt,
		user.LastLogin,
	)

	if err != nil {
		// modernc.org/sqlite reports the violated column in the message
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if strings.Contains(err.Error(), "users.username") {
				return storage.ErrUsernameTaken
			}
			if strings.Contains(err.Error(), "users.email") {
				return storage.ErrEmailTaken
			}
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves an account by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getUser(ctx, "username = ?", username)
}

// GetUserByEmail retrieves an account by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves an account by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.Account, error) {
	return s.getUser(ctx, "id = ?", userID)
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*models.Account, error) {
	query := `
		SELECT id, username, email, first_name, last_name, password_hash,
			is_active, is_staff, is_superuser, created_at, last_login
		FROM users
		WHERE ` + where

	user := &models.Account{}
	var lastLogin sql.NullTime

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
		&lastLogin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return user, nil
}

// UpdatePassword replaces the password hash and blacklists all
// outstanding refresh tokens for the account in the same transaction.
// Writing the stored hash again is a no-op: the tokens stay valid, so
// an unrelated account save can never lock every session out.
func (s *Storage) UpdatePassword(ctx context.Context, userID, newHash string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var currentHash string
	err = tx.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE id = ?`, userID,
	).Scan(&currentHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read current password hash: %w", err)
	}

	if currentHash == newHash {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, newHash, userID,
	); err != nil {
		return 0, fmt.Errorf("failed to update password hash: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO blacklisted_tokens (jti, blacklisted_at)
		SELECT jti, ? FROM outstanding_tokens WHERE user_id = ?
	`, time.Now(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to blacklist outstanding tokens: %w", err)
	}

	revoked, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit password update: %w", err)
	}

	return int(revoked), nil
}

// UpdateLastLogin updates the last login timestamp
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, lastLogin, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// SetActive toggles the account's active flag
func (s *Storage) SetActive(ctx context.Context, userID string, active bool) error {
	query := `UPDATE users SET is_active = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, active, userID)
	if err != nil {
		return fmt.Errorf("failed to update active flag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
