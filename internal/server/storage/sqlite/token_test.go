package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couplestools/accounts/internal/server/storage"
)

func TestTokenStorage_SaveAndList(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, s, "alice", "alice@example.com")

	first := saveTestToken(t, s, user.ID, time.Now().Add(time.Hour))
	time.Sleep(10 * time.Millisecond)
	second := saveTestToken(t, s, user.ID, time.Now().Add(2*time.Hour))

	tokens, err := s.OutstandingForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	// Newest first
	assert.Equal(t, second.JTI, tokens[0].JTI)
	assert.Equal(t, first.JTI, tokens[1].JTI)
}

func TestTokenStorage_Blacklist_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, s, "alice", "alice@example.com")
	token := saveTestToken(t, s, user.ID, time.Now().Add(time.Hour))

	blacklisted, err := s.IsBlacklisted(ctx, token.JTI)
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, s.Blacklist(ctx, token.JTI))

	blacklisted, err = s.IsBlacklisted(ctx, token.JTI)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// Second call is a no-op, not an error
	require.NoError(t, s.Blacklist(ctx, token.JTI))

	blacklisted, err = s.IsBlacklisted(ctx, token.JTI)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestTokenStorage_Blacklist_UnknownJTI(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.Blacklist(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_BlacklistUserTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	alice := createTestUser(t, s, "alice", "alice@example.com")
	bob := createTestUser(t, s, "bob", "bob@example.com")

	aliceFirst := saveTestToken(t, s, alice.ID, time.Now().Add(time.Hour))
	aliceSecond := saveTestToken(t, s, alice.ID, time.Now().Add(time.Hour))
	bobToken := saveTestToken(t, s, bob.ID, time.Now().Add(time.Hour))

	count, err := s.BlacklistUserTokens(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, jti := range []string{aliceFirst.JTI, aliceSecond.JTI} {
		blacklisted, err := s.IsBlacklisted(ctx, jti)
		require.NoError(t, err)
		assert.True(t, blacklisted)
	}

	blacklisted, err := s.IsBlacklisted(ctx, bobToken.JTI)
	require.NoError(t, err)
	assert.False(t, blacklisted)

	// Already-blacklisted entries are not counted again
	saveTestToken(t, s, alice.ID, time.Now().Add(time.Hour))

	count, err = s.BlacklistUserTokens(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTokenStorage_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, s, "alice", "alice@example.com")

	expired := saveTestToken(t, s, user.ID, time.Now().Add(-time.Hour))
	live := saveTestToken(t, s, user.ID, time.Now().Add(time.Hour))

	// Blacklist row for the expired token must cascade away
	require.NoError(t, s.Blacklist(ctx, expired.JTI))

	deleted, err := s.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	tokens, err := s.OutstandingForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, live.JTI, tokens[0].JTI)

	blacklisted, err := s.IsBlacklisted(ctx, expired.JTI)
	require.NoError(t, err)
	assert.False(t, blacklisted)
}
