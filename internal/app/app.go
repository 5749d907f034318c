// Package app wires configuration, storage and the HTTP surface into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"focustask/internal/cache"
	"focustask/internal/config"
	"focustask/internal/db"
	"focustask/internal/gamification"
	"focustask/internal/http/api"
	"focustask/internal/mailer"
	"focustask/internal/ratelimit"
	"focustask/internal/security"
	"focustask/internal/settings"
	"focustask/internal/tasks"
	"focustask/internal/users"
)

// shutdownTimeout bounds graceful shutdown on exit.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, configPath string, portOverride int) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	if portOverride > 0 {
		cfg.Port = portOverride
	}

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	issuer, errIssuer := security.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)
	if errIssuer != nil {
		return errIssuer
	}

	engine := gamification.NewEngine(conn)
	deps := api.Deps{
		DB:       conn,
		Issuer:   issuer,
		Users:    users.NewService(conn, issuer, cache.New(cfg.Redis)),
		Tasks:    tasks.NewService(conn, engine),
		Settings: settings.NewService(conn, mailer.NewSender(cfg.SMTP)),
		Engine:   engine,
		Limiter:  ratelimit.NewManager(cfg.Redis, nil, nil),
		Config:   cfg,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", errServe)
		}
		return nil
	}
}
