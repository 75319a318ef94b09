// Package store holds the link store backends: PostgreSQL, Redis and an
// in-process map for development and tests.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sundayezeilo/linkshortener/internal/config"
	"github.com/sundayezeilo/linkshortener/internal/idgen"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

// Backend is a shortener.Store that owns a connection and can report its health.
type Backend interface {
	shortener.Store
	Ping(ctx context.Context) error
	Shutdown() error
}

// Options are shared by every backend.
type Options struct {
	// OpTimeout bounds each store round trip. Zero means no extra deadline.
	OpTimeout time.Duration
	// IDs mints link IDs. Defaults to UUID v7.
	IDs idgen.Generator
}

func (o Options) withDefaults() Options {
	if o.IDs == nil {
		o.IDs = idgen.NewV7(idgen.WithRetries(1))
	}
	return o
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Open connects the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Backend, error) {
	opts := Options{OpTimeout: cfg.Store.OpTimeout}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := ConnectPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("link store ready", "driver", config.DriverPostgres)
		return NewPostgresStore(pool, opts), nil

	case config.DriverRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("link store ready", "driver", config.DriverRedis)
		return NewRedisStore(client, cfg.Redis.KeyPrefix, opts), nil

	case config.DriverMemory:
		logger.Warn("using in-memory link store; links are lost on restart")
		return NewMemoryStore(opts), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
