package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/storage"
)

// CreateResetToken stores a new password reset token
func (s *Storage) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, created_at, expires_at, used_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.CreatedAt,
		token.ExpiresAt,
		token.UsedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	return nil
}

// ConsumeResetToken atomically marks the token matching tokenHash as
// used and returns it
func (s *Storage) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	token := &models.PasswordResetToken{}
	var usedAt sql.NullTime

	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, used_at
		FROM password_reset_tokens
		WHERE token_hash = ?
	`, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&usedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	if usedAt.Valid {
		return nil, storage.ErrResetTokenUsed
	}

	if now.After(token.ExpiresAt) {
		return nil, storage.ErrResetTokenExpired
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at = ? WHERE id = ?`, now, token.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark reset token used: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reset token consumption: %w", err)
	}

	token.UsedAt = &now

	return token, nil
}

// DeleteExpiredResetTokens removes reset tokens that expired before now
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
