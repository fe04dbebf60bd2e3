// Package tokens implements the access/refresh token lifecycle.
//
// Access tokens are short-lived JWTs validated purely by signature and
// expiry. Refresh tokens are longer-lived JWTs whose jti is recorded in
// the revocation ledger at issuance, so they can be blacklisted later.
// Once a refresh token is blacklisted or expired it is dead for good;
// there is no way back to a usable state.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/storage"
)

// Token type claim values
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrTokenExpired is returned when the token's exp claim has passed
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed is returned for tokens that fail to parse, have
	// a bad signature or carry the wrong token_type claim
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenBlacklisted is returned for refresh tokens with a
	// revocation entry in the ledger
	ErrTokenBlacklisted = errors.New("token blacklisted")
)

// Claims are the JWT claims carried by both token kinds
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Config holds signing and lifetime parameters
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Pair is a freshly issued access/refresh token pair
type Pair struct {
	Access          string
	Refresh         string
	AccessExpiresIn int64 // seconds
}

// Service issues and validates tokens against a revocation ledger
type Service struct {
	cfg    Config
	ledger storage.TokenStorage
}

// NewService creates a token service.
// secret must be a cryptographically secure random value.
func NewService(cfg Config, ledger storage.TokenStorage) *Service {
	return &Service{cfg: cfg, ledger: ledger}
}

// IssuePair mints an access/refresh pair for the account and records
// the refresh token in the ledger so it can be revoked later.
func (s *Service) IssuePair(ctx context.Context, user *models.Account) (*Pair, error) {
	now := time.Now()

	access, err := s.sign(user, TypeAccess, now, now.Add(s.cfg.AccessTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshJTI := uuid.New().String()
	refreshExpiry := now.Add(s.cfg.RefreshTTL)

	refresh, err := s.signWithJTI(user, TypeRefresh, refreshJTI, now, refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	outstanding := &models.OutstandingToken{
		JTI:       refreshJTI,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: refreshExpiry,
	}

	if err := s.ledger.SaveOutstanding(ctx, outstanding); err != nil {
		return nil, fmt.Errorf("failed to record refresh token: %w", err)
	}

	return &Pair{
		Access:          access,
		Refresh:         refresh,
		AccessExpiresIn: int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

// Validate checks an access token and returns its claims.
//
// Validation is stateless: only the signature and expiry are checked,
// the ledger is never consulted. Revoking a refresh token therefore
// does not kill access tokens already in the wild, it only blocks
// future refreshes. That keeps the hot path free of storage lookups at
// the cost of a revocation delay bounded by the access TTL.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	return s.parse(tokenString, TypeAccess)
}

// ParseRefresh checks a refresh token's signature, expiry and type.
// It does not consult the ledger; use Refresh or the ledger directly
// for blacklist-aware operations.
func (s *Service) ParseRefresh(tokenString string) (*Claims, error) {
	return s.parse(tokenString, TypeRefresh)
}

// Refresh validates a refresh token against signature, expiry and the
// blacklist, then mints a new access token for its owner. The refresh
// token itself is left outstanding; there is no rotation.
func (s *Service) Refresh(ctx context.Context, refreshString string) (string, int64, error) {
	claims, err := s.parse(refreshString, TypeRefresh)
	if err != nil {
		return "", 0, err
	}

	blacklisted, err := s.ledger.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return "", 0, ErrTokenBlacklisted
	}

	now := time.Now()
	user := &models.Account{ID: claims.UserID, Username: claims.Username}

	access, err := s.sign(user, TypeAccess, now, now.Add(s.cfg.AccessTTL))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	return access, int64(s.cfg.AccessTTL.Seconds()), nil
}

// BlacklistRefresh revokes the presented refresh token. Blacklisting a
// token that is already blacklisted is a no-op.
func (s *Service) BlacklistRefresh(ctx context.Context, refreshString string) error {
	claims, err := s.parse(refreshString, TypeRefresh)
	if err != nil {
		return err
	}

	if err := s.ledger.Blacklist(ctx, claims.ID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return ErrTokenMalformed
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

func (s *Service) sign(user *models.Account, tokenType string, now, expiresAt time.Time) (string, error) {
	return s.signWithJTI(user, tokenType, uuid.New().String(), now, expiresAt)
}

func (s *Service) signWithJTI(user *models.Account, tokenType, jti string, now, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) parse(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.TokenType != wantType {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
