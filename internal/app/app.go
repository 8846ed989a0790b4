// Package app wires configuration, storage, services and transport into a
// running HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/placescout/placescout-backend/internal/adapter/postgres"
	"github.com/placescout/placescout-backend/internal/adapter/postgres/search"
	"github.com/placescout/placescout-backend/internal/adapter/provider/places"
	"github.com/placescout/placescout-backend/internal/adapter/redis"
	"github.com/placescout/placescout-backend/internal/auth"
	"github.com/placescout/placescout-backend/internal/config"
	"github.com/placescout/placescout-backend/internal/notifier"
	"github.com/placescout/placescout-backend/internal/service/scraping"
)

// Run is the application entry point. It loads configuration, connects to
// both stores, builds the service graph and serves HTTP until ctx is
// cancelled, then drains in-flight requests before returning.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	// Stores.
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	credits, err := redis.NewCreditStore(cfg.Credits)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer credits.Close()

	if err := credits.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	// Outbound channels.
	sink := notifier.New(cfg.Notifier, logger)
	defer sink.Close()

	placesClient := places.New(cfg.Provider, logger)

	// Services.
	txm := postgres.NewTxManager(pool)
	searchRepo := search.New(pool)
	scrapingService := scraping.NewService(logger, placesClient, credits, searchRepo, txm, sink)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)

	handler := newRouter(logger, cfg, scrapingService, jwtManager, pool, credits)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("stopped")
	return nil
}
