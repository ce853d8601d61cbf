package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/civicspot/internal/config"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/fakeapi"
	"github.com/civicspot/internal/logger"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		logger.InitLogger(constants.EnvProduction, true).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	appLogger := logger.InitLogger(cfg.Environment, cfg.LogJSON)

	if cfg.Environment == constants.EnvProduction && cfg.FakeAPI.JWTSecret == config.Default().FakeAPI.JWTSecret {
		appLogger.Warn("fakeapi is using the default JWT secret")
	}

	backend, err := fakeapi.New(cfg.FakeAPI, appLogger)
	if err != nil {
		appLogger.Error("failed to create fakeapi", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.FakeAPI.Address,
		Handler:      backend,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}

	go func() {
		appLogger.Info("fakeapi listening", "address", cfg.FakeAPI.Address, "token_ttl", cfg.FakeAPI.TokenTTL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("fakeapi server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down fakeapi...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("fakeapi shutdown error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("fakeapi stopped")
}
