// Package main initializes and starts the Flower Daily HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, handlers and metrics.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/flowerdaily/internal/config"
	"github.com/atinyakov/flowerdaily/internal/db"
	"github.com/atinyakov/flowerdaily/internal/logger"
	"github.com/atinyakov/flowerdaily/internal/metrics"
	"github.com/atinyakov/flowerdaily/internal/repository"
	"github.com/atinyakov/flowerdaily/internal/secret"
	"github.com/atinyakov/flowerdaily/internal/server/handler/http"
	"github.com/atinyakov/flowerdaily/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}
	key, err := options.Key()
	if err != nil {
		zapLogger.Fatal("invalid encryption key", zap.Error(err))
	}
	codec, err := secret.NewCodec(key)
	if err != nil {
		zapLogger.Fatal("cannot init secret codec", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Sessions live in Redis when configured, otherwise in Postgres with a
	// periodic cleanup of expired rows.
	var sessions service.SessionStore
	if options.RedisAddr != "" {
		redisSessions, err := repository.NewRedisSessionRepository(ctx, repository.RedisOptions{Address: options.RedisAddr})
		if err != nil {
			zapLogger.Fatal("cannot init redis session store", zap.Error(err))
		}
		defer redisSessions.Close()
		sessions = redisSessions
		zapLogger.Info("using redis session store", zap.String("addr", options.RedisAddr))
	} else {
		sessions = repository.NewPostgresSessionRepository(postgresDB)
		db.StartExpiredSessionCleaner(ctx, postgresDB, time.Hour, zapLogger)
	}

	// Initialize repositories.
	flowerRepo := repository.NewPostgresFlowerRepository(postgresDB)
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	settingRepo := repository.NewPostgresSettingRepository(postgresDB)

	// Initialize business-logic services.
	m := metrics.New()
	hasher := secret.NewHasher(secret.DefaultArgon2Params())
	authService := service.NewAuthService(userRepo, sessions, hasher, zapLogger)

	handlers := http.Handlers{
		Auth: &http.AuthHandler{AuthService: authService, SecureCookie: options.Production},
		Flowers: &http.FlowerHandler{
			Selection: service.NewSelectionService(flowerRepo, nil, m),
			Flowers:   service.NewFlowerService(flowerRepo),
		},
		Users:    &http.UserHandler{Users: service.NewUserService(userRepo, sessions, hasher)},
		Settings: &http.SettingsHandler{Settings: service.NewSettingsService(settingRepo, codec)},
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, authService, m, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
