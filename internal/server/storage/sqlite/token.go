package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/storage"
)

// SaveOutstanding records a freshly issued refresh token
func (s *Storage) SaveOutstanding(ctx context.Context, token *models.OutstandingToken) error {
	query := `
		INSERT INTO outstanding_tokens (jti, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.JTI,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save outstanding token: %w", err)
	}

	return nil
}

// Blacklist revokes a single refresh token by jti. INSERT OR IGNORE
// makes repeated calls a no-op.
func (s *Storage) Blacklist(ctx context.Context, jti string) error {
	query := `INSERT OR IGNORE INTO blacklisted_tokens (jti, blacklisted_at) VALUES (?, ?)`

	_, err := s.db.ExecContext(ctx, query, jti, time.Now())
	if err != nil {
		// Unknown jti: the FK to outstanding_tokens rejects it
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return storage.ErrTokenNotFound
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

// IsBlacklisted reports whether a blacklist entry exists for jti
func (s *Storage) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	query := `SELECT COUNT(*) FROM blacklisted_tokens WHERE jti = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, jti).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}

	return count > 0, nil
}

// OutstandingForUser retrieves all outstanding tokens recorded for a user
func (s *Storage) OutstandingForUser(ctx context.Context, userID string) ([]*models.OutstandingToken, error) {
	query := `
		SELECT jti, user_id, created_at, expires_at
		FROM outstanding_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tokens []*models.OutstandingToken

	for rows.Next() {
		token := &models.OutstandingToken{}
		if err := rows.Scan(
			&token.JTI,
			&token.UserID,
			&token.CreatedAt,
			&token.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}

// BlacklistUserTokens blacklists every outstanding token for a user
func (s *Storage) BlacklistUserTokens(ctx context.Context, userID string) (int, error) {
	query := `
		INSERT OR IGNORE INTO blacklisted_tokens (jti, blacklisted_at)
		SELECT jti, ? FROM outstanding_tokens WHERE user_id = ?
	`

	result, err := s.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to blacklist user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpired removes ledger entries whose tokens expired before now.
// Blacklist rows go with them via ON DELETE CASCADE.
func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM outstanding_tokens WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
