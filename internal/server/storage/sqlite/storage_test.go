package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/couplestools/accounts/internal/models"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// In-memory database per test
	storage, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
	}

	return storage, cleanup
}

// createTestUser inserts an account and returns it
func createTestUser(t *testing.T, s *Storage, username, email string) *models.Account {
	t.Helper()

	user := &models.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$2a$10$fakehashfakehashfakehashfakehash",
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	require.NoError(t, s.CreateUser(context.Background(), user))

	return user
}

// saveTestToken records an outstanding refresh token for the user
func saveTestToken(t *testing.T, s *Storage, userID string, expiresAt time.Time) *models.OutstandingToken {
	t.Helper()

	token := &models.OutstandingToken{
		JTI:       uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	require.NoError(t, s.SaveOutstanding(context.Background(), token))

	return token
}
