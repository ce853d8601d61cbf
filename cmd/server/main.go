package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/civicspot/internal/apiclient"
	"github.com/civicspot/internal/config"
	"github.com/civicspot/internal/constants"
	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/http"
	"github.com/civicspot/internal/logger"
	"github.com/civicspot/internal/metrics"
	"github.com/civicspot/internal/notifications"
	"github.com/civicspot/internal/session"
	"github.com/civicspot/internal/tokenstore"
	"github.com/civicspot/internal/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "civicspot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (optional, won't error if missing)
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger := logger.InitLogger(cfg.Environment, cfg.LogJSON)
	appLogger.Info("configuration loaded",
		"environment", cfg.Environment,
		"api_base_url", cfg.APIBaseURL,
		"token_store", cfg.TokenStore.Driver,
		"single_flight", cfg.Session.SingleFlight,
		"hydrate_timeout", cfg.Session.HydrateTimeout,
	)

	origin, err := domain.NewOrigin(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	store, err := tokenstore.Open(cfg.TokenStore.Driver, cfg.TokenStore.Path, origin)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	tp, err := tracing.Setup(cfg.Tracing, nil)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn("failed to flush traces", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	binding := apiclient.NewBinding()
	client, err := apiclient.NewClient(cfg.APIBaseURL, binding,
		apiclient.WithLogger(appLogger),
		apiclient.WithObserver(m.RequestObserver()),
		apiclient.WithTracerProvider(tp),
	)
	if err != nil {
		return err
	}

	ctrl, err := session.New(store, binding, client,
		session.WithLogger(appLogger),
		session.WithHydrateTimeout(cfg.Session.HydrateTimeout),
		session.WithSingleFlight(cfg.Session.SingleFlight),
		session.WithObserver(m.SessionObserver()),
		session.WithTracerProvider(tp),
	)
	if err != nil {
		return err
	}

	badge, err := notifications.NewBadge(client, ctrl,
		notifications.WithLogger(appLogger),
		notifications.WithSchedule(cfg.Notifications.Refresh),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pages answer with a loading placeholder until this resolves.
	go ctrl.Hydrate(ctx)

	if err := badge.Start(ctx); err != nil {
		return err
	}
	defer badge.Stop()

	server, err := http.NewServer(cfg, http.Deps{
		Session:        ctrl,
		Client:         client,
		Badge:          badge,
		Metrics:        m,
		Logger:         appLogger,
		TracerProvider: tp,
	})
	if err != nil {
		return err
	}

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	appLogger.Info("shell stopped")
	return nil
}
