package models

import "time"

// OutstandingToken is a ledger entry for an issued refresh token,
// identified by its JWT ID claim. Access tokens are never recorded here;
// they are validated statelessly.
type OutstandingToken struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BlacklistedToken marks an outstanding refresh token as revoked.
// At most one entry exists per JTI.
type BlacklistedToken struct {
	JTI           string    `json:"jti"`
	BlacklistedAt time.Time `json:"blacklisted_at"`
}

// PasswordResetToken is a single-use credential for the password reset
// flow. Only a SHA-256 hash of the raw token is stored.
type PasswordResetToken struct {
	ID        string     `json:"id"` // UUID
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
