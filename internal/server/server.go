// Package server wires the HTTP API together: routes, middleware and
// the background sweeper for expired ledger entries.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couplestools/accounts/internal/config"
	"github.com/couplestools/accounts/internal/server/handlers"
	"github.com/couplestools/accounts/internal/server/mailer"
	"github.com/couplestools/accounts/internal/server/middleware"
	"github.com/couplestools/accounts/internal/server/storage/sqlite"
	"github.com/couplestools/accounts/internal/server/tokens"
)

// Login attempts allowed per client IP per window
const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute

	sweepInterval   = time.Hour
	shutdownTimeout = 10 * time.Second
)

// Server is the accounts HTTP server
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	store      *sqlite.Storage
	tokens     *tokens.Service
	httpServer *http.Server
}

// New assembles the server from its dependencies
func New(logger *slog.Logger, cfg *config.Config, store *sqlite.Storage, mail mailer.Mailer, version string) *Server {
	tokenService := tokens.NewService(tokens.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	}, store)

	authHandler := handlers.NewAuthHandler(logger, store, tokenService)
	passwordHandler := handlers.NewPasswordHandler(
		logger, store, store, mail, cfg.ResetTTL, cfg.ResetBaseURL)
	healthHandler := handlers.NewHealthHandler(logger, version)

	requireAuth := middleware.AuthMiddleware(logger, tokenService)
	limitLogin := middleware.RateLimitMiddleware(loginRateLimit, loginRateWindow, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.Handle("POST /api/v1/auth/login", limitLogin(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.Handle("PUT /api/v1/auth/change-password",
		requireAuth(http.HandlerFunc(passwordHandler.Change)))
	mux.Handle("POST /api/v1/auth/password-reset",
		limitLogin(http.HandlerFunc(passwordHandler.ResetRequest)))
	mux.HandleFunc("POST /api/v1/auth/password-reset/confirm", passwordHandler.ResetConfirm)

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return &Server{
		logger: logger,
		cfg:    cfg,
		store:  store,
		tokens: tokenService,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run starts the HTTP server and the expired-token sweeper and blocks
// until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go s.sweepExpired(sweeperCtx)

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// sweepExpired periodically removes expired ledger entries and reset
// tokens. Expiry is still enforced at validation time; this only keeps
// the tables from growing without bound.
func (s *Server) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()

			deleted, err := s.store.DeleteExpired(ctx, now)
			if err != nil {
				s.logger.Error("failed to sweep expired tokens", slog.Any("error", err))
			} else if deleted > 0 {
				s.logger.Info("swept expired tokens", slog.Int("deleted", deleted))
			}

			deleted, err = s.store.DeleteExpiredResetTokens(ctx, now)
			if err != nil {
				s.logger.Error("failed to sweep expired reset tokens", slog.Any("error", err))
			} else if deleted > 0 {
				s.logger.Info("swept expired reset tokens", slog.Int("deleted", deleted))
			}
		}
	}
}
