package storage

import (
	"context"
	"time"

	"github.com/couplestools/accounts/internal/models"
)

// TokenStorage is the revocation ledger for refresh tokens. Refresh
// tokens are recorded at issuance and looked up by their JWT ID (jti).
// A token with no blacklist entry is presumed valid until expiry.
type TokenStorage interface {
	// SaveOutstanding records a freshly issued refresh token
	SaveOutstanding(ctx context.Context, token *models.OutstandingToken) error

	// Blacklist revokes a single token by jti. Blacklisting an already
	// blacklisted token is a no-op, not an error.
	Blacklist(ctx context.Context, jti string) error

	// IsBlacklisted reports whether a blacklist entry exists for jti
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// OutstandingForUser retrieves all outstanding tokens recorded for
	// a user, including ones already blacklisted or expired
	OutstandingForUser(ctx context.Context, userID string) ([]*models.OutstandingToken, error)

	// BlacklistUserTokens blacklists every outstanding token for a
	// user. Returns the number of newly blacklisted tokens; tokens
	// already on the blacklist are skipped.
	BlacklistUserTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpired removes ledger entries (and their blacklist rows)
	// whose tokens expired before now. Returns the number of removed
	// outstanding entries.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
