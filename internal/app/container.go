package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/do"

	"github.com/sundayezeilo/linkshortener/internal/api"
	"github.com/sundayezeilo/linkshortener/internal/config"
	"github.com/sundayezeilo/linkshortener/internal/health"
	"github.com/sundayezeilo/linkshortener/internal/metrics"
	"github.com/sundayezeilo/linkshortener/internal/server"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
	"github.com/sundayezeilo/linkshortener/internal/store"
	"github.com/sundayezeilo/linkshortener/internal/telemetry"
	"github.com/sundayezeilo/linkshortener/internal/web"
)

const apiTitle = "Link Shortener"

// tracing adapts the tracer provider shutdown to do.Shutdownable.
type tracing struct {
	shutdown telemetry.Shutdown
}

func (t *tracing) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.shutdown(ctx)
}

// newInjector registers every service. Nothing is built until it is invoked;
// ctx bounds the store connection and the exporter set-up.
func newInjector(ctx context.Context, cfg *config.Config, logger *slog.Logger) *do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i *do.Injector) (*tracing, error) {
		shutdown, err := telemetry.Setup(ctx, cfg.Observability)
		if err != nil {
			return nil, err
		}
		return &tracing{shutdown: shutdown}, nil
	})

	do.Provide(injector, func(i *do.Injector) (store.Backend, error) {
		return store.Open(ctx, cfg, logger)
	})

	do.Provide(injector, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		backend, err := do.Invoke[store.Backend](i)
		if err != nil {
			return nil, err
		}

		var recorder shortener.Recorder
		if cfg.Observability.MetricsEnabled {
			recorder = do.MustInvoke[*metrics.Metrics](i)
		}

		return shortener.NewService(backend, &shortener.ServiceConfig{
			CodeLength:  cfg.Shortener.CodeLength,
			MaxAttempts: cfg.Shortener.MaxAttempts,
			Recorder:    recorder,
			Logger:      logger,
		}), nil
	})

	do.Provide(injector, func(i *do.Injector) (http.Handler, error) {
		svc, err := do.Invoke[*shortener.Service](i)
		if err != nil {
			return nil, err
		}
		backend := do.MustInvoke[store.Backend](i)

		routes := server.Routes{
			Web: web.NewHandler(web.HandlerConfig{
				Service: svc,
				Logger:  logger,
				BaseURL: cfg.Server.ShortLinkPrefix(),
			}),
			API:     api.NewHandler(svc, cfg.Server.ShortLinkPrefix(), logger),
			Health:  health.NewHandler(backend, cfg.Store.Driver, cfg.Observability.ServiceName, cfg.Observability.ServiceVersion),
			Title:   apiTitle,
			Version: cfg.Observability.ServiceVersion,
		}
		if cfg.Observability.MetricsEnabled {
			routes.Metrics = do.MustInvoke[*metrics.Metrics](i)
		}

		return server.NewRouter(routes, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*server.Server, error) {
		handler, err := do.Invoke[http.Handler](i)
		if err != nil {
			return nil, err
		}
		return server.New(cfg.Server, logger, handler), nil
	})

	return injector
}
