// Package mailer defines the outbound email collaborator for the
// password reset flow. The service's contract ends at producing a
// ResetEmail context; rendering and delivery belong to the
// implementation behind the interface.
package mailer

import (
	"context"
	"log/slog"
)

// ResetEmail is the context handed to the mailer when a password reset
// token has been created.
type ResetEmail struct {
	Username string
	Email    string
	ResetURL string // includes the single-use reset token
}

// Mailer sends password reset notifications
type Mailer interface {
	// SendPasswordReset delivers a reset message to msg.Email.
	// Implementations must not log the reset URL.
	SendPasswordReset(ctx context.Context, msg ResetEmail) error
}

// LogMailer is a no-delivery Mailer that records the event in the
// application log. Used in development and tests; production wires a
// real delivery backend instead.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendPasswordReset logs the reset request without the token itself
func (m *LogMailer) SendPasswordReset(ctx context.Context, msg ResetEmail) error {
	m.logger.InfoContext(ctx, "password reset email requested",
		slog.String("username", msg.Username),
		slog.String("email", msg.Email))
	return nil
}
