package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/do"

	"github.com/sundayezeilo/linkshortener/internal/config"
	"github.com/sundayezeilo/linkshortener/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Server   *server.Server
	injector *do.Injector
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
		"store", cfg.Store.Driver,
	)

	return build(ctx, cfg, logger)
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	injector := newInjector(ctx, cfg, logger)

	// Tracing comes first so the tracer provider is in place before any span starts.
	if _, err := do.Invoke[*tracing](injector); err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		if shutdownErr := injector.Shutdown(); shutdownErr != nil {
			logger.Error("cleanup after failed start", "error", shutdownErr)
		}
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}

	logger.Info("application initialized",
		"addr", cfg.Server.Addr(),
		"base_url", cfg.Server.BaseURL,
		"code_length", cfg.Shortener.CodeLength,
		"max_attempts", cfg.Shortener.MaxAttempts,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Server:   srv,
		injector: injector,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown releases the store connection and flushes pending spans.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if err := a.injector.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down services: %w", err)
	}

	a.Logger.Info("application stopped")
	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		for _, path := range []string{".env", "../.env"} {
			if err := godotenv.Load(path); err == nil {
				return nil
			}
		}
		log.Println("no .env file found.")
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
