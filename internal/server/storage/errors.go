package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that no account matched the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates that an account with this username already exists
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken indicates that an account with this email already exists
	ErrEmailTaken = errors.New("email already taken")

	// ErrTokenNotFound indicates that no outstanding token matched the lookup
	ErrTokenNotFound = errors.New("token not found")

	// ErrResetTokenNotFound indicates that no password reset token matched
	ErrResetTokenNotFound = errors.New("reset token not found")

	// ErrResetTokenExpired indicates the reset token's lifetime has passed
	ErrResetTokenExpired = errors.New("reset token expired")

	// ErrResetTokenUsed indicates the reset token was already consumed
	ErrResetTokenUsed = errors.New("reset token already used")
)
