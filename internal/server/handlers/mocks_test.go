package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/mailer"
	"github.com/couplestools/accounts/internal/server/storage"
	"github.com/couplestools/accounts/internal/server/tokens"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockTokenLedger is an in-memory TokenStorage
type mockTokenLedger struct {
	outstanding map[string]*models.OutstandingToken
	blacklisted map[string]time.Time
}

func newMockTokenLedger() *mockTokenLedger {
	return &mockTokenLedger{
		outstanding: make(map[string]*models.OutstandingToken),
		blacklisted: make(map[string]time.Time),
	}
}

func (m *mockTokenLedger) SaveOutstanding(ctx context.Context, token *models.OutstandingToken) error {
	m.outstanding[token.JTI] = token
	return nil
}

func (m *mockTokenLedger) Blacklist(ctx context.Context, jti string) error {
	if _, ok := m.outstanding[jti]; !ok {
		return storage.ErrTokenNotFound
	}
	if _, ok := m.blacklisted[jti]; !ok {
		m.blacklisted[jti] = time.Now()
	}
	return nil
}

func (m *mockTokenLedger) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, ok := m.blacklisted[jti]
	return ok, nil
}

func (m *mockTokenLedger) OutstandingForUser(ctx context.Context, userID string) ([]*models.OutstandingToken, error) {
	var result []*models.OutstandingToken
	for _, token := range m.outstanding {
		if token.UserID == userID {
			result = append(result, token)
		}
	}
	return result, nil
}

func (m *mockTokenLedger) BlacklistUserTokens(ctx context.Context, userID string) (int, error) {
	count := 0
	for jti, token := range m.outstanding {
		if token.UserID != userID {
			continue
		}
		if _, ok := m.blacklisted[jti]; !ok {
			m.blacklisted[jti] = time.Now()
			count++
		}
	}
	return count, nil
}

func (m *mockTokenLedger) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for jti, token := range m.outstanding {
		if token.ExpiresAt.Before(now) {
			delete(m.outstanding, jti)
			delete(m.blacklisted, jti)
			count++
		}
	}
	return count, nil
}

// mockUserStorage is an in-memory UserStorage. Password updates
// blacklist outstanding tokens through the attached ledger, mirroring
// the storage contract.
type mockUserStorage struct {
	users  map[string]*models.Account // keyed by ID
	ledger *mockTokenLedger

	createErr error
	updateErr error
}

func newMockUserStorage(ledger *mockTokenLedger) *mockUserStorage {
	return &mockUserStorage{
		users:  make(map[string]*models.Account),
		ledger: ledger,
	}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return storage.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.Account, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserStorage) UpdatePassword(ctx context.Context, userID, newHash string) (int, error) {
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	user, ok := m.users[userID]
	if !ok {
		return 0, storage.ErrUserNotFound
	}
	if user.PasswordHash == newHash {
		return 0, nil
	}
	user.PasswordHash = newHash
	return m.ledger.BlacklistUserTokens(ctx, userID)
}

func (m *mockUserStorage) UpdateLastLogin(ctx context.Context, userID string, t time.Time) error {
	user, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.LastLogin = &t
	return nil
}

func (m *mockUserStorage) SetActive(ctx context.Context, userID string, active bool) error {
	user, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.IsActive = active
	return nil
}

// mockResetStorage is an in-memory ResetStorage keyed by token hash
type mockResetStorage struct {
	tokens map[string]*models.PasswordResetToken

	createErr error
}

func newMockResetStorage() *mockResetStorage {
	return &mockResetStorage{tokens: make(map[string]*models.PasswordResetToken)}
}

func (m *mockResetStorage) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *token
	m.tokens[token.TokenHash] = &copied
	return nil
}

func (m *mockResetStorage) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error) {
	token, ok := m.tokens[tokenHash]
	if !ok {
		return nil, storage.ErrResetTokenNotFound
	}
	if token.UsedAt != nil {
		return nil, storage.ErrResetTokenUsed
	}
	if now.After(token.ExpiresAt) {
		return nil, storage.ErrResetTokenExpired
	}
	token.UsedAt = &now
	copied := *token
	return &copied, nil
}

func (m *mockResetStorage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	count := 0
	for hash, token := range m.tokens {
		if token.ExpiresAt.Before(now) {
			delete(m.tokens, hash)
			count++
		}
	}
	return count, nil
}

// mockMailer captures outgoing reset emails
type mockMailer struct {
	sent    []mailer.ResetEmail
	sendErr error
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, msg mailer.ResetEmail) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testTokenService(ledger *mockTokenLedger) *tokens.Service {
	return tokens.NewService(tokens.Config{
		Secret:     []byte("handler-test-secret"),
		Issuer:     "accounts-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, ledger)
}
