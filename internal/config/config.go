// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

// Defaults for optional settings
const (
	DefaultAddr         = ":8080"
	DefaultDBPath       = "accounts.db"
	DefaultAccessTTL    = 15 * time.Minute
	DefaultRefreshTTL   = 7 * 24 * time.Hour
	DefaultResetTTL     = time.Hour
	DefaultResetBaseURL = "http://localhost:8080/account/password-reset/validate"
	DefaultIssuer       = "accounts"
)

// Config holds all server settings
type Config struct {
	Addr         string
	DBPath       string
	JWTSecret    string
	Issuer       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	ResetTTL     time.Duration
	ResetBaseURL string
}

// Load reads configuration from ACCOUNTS_* environment variables,
// falling back to defaults for everything except the JWT secret.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:         envOr("ACCOUNTS_ADDR", DefaultAddr),
		DBPath:       envOr("ACCOUNTS_DB_PATH", DefaultDBPath),
		JWTSecret:    os.Getenv("ACCOUNTS_JWT_SECRET"),
		Issuer:       envOr("ACCOUNTS_ISSUER", DefaultIssuer),
		AccessTTL:    DefaultAccessTTL,
		RefreshTTL:   DefaultRefreshTTL,
		ResetTTL:     DefaultResetTTL,
		ResetBaseURL: envOr("ACCOUNTS_RESET_BASE_URL", DefaultResetBaseURL),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ACCOUNTS_JWT_SECRET is not set")
	}

	var err error
	if cfg.AccessTTL, err = durationOr("ACCOUNTS_ACCESS_TTL", DefaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = durationOr("ACCOUNTS_REFRESH_TTL", DefaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.ResetTTL, err = durationOr("ACCOUNTS_RESET_TTL", DefaultResetTTL); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}
