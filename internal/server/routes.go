package server

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sundayezeilo/linkshortener/internal/api"
	"github.com/sundayezeilo/linkshortener/internal/health"
	"github.com/sundayezeilo/linkshortener/internal/httpx"
	"github.com/sundayezeilo/linkshortener/internal/metrics"
	"github.com/sundayezeilo/linkshortener/internal/web"
)

// Routes are the handlers mounted on the router.
type Routes struct {
	Web    *web.Handler
	API    *api.Handler
	Health *health.Handler
	// Metrics, when set, observes every request and is served on /x/metrics.
	Metrics *metrics.Metrics

	Title   string
	Version string
}

// NewRouter mounts the pages, the JSON API, health and metrics on one chi router.
// Fixed endpoints live under /x/ or /api/, which no single-segment code can
// reach, so every stored code stays resolvable.
func NewRouter(routes Routes, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery is outermost so panics in the other middleware are caught too.
	r.Use(httpx.Chain(
		httpx.Recovery(logger),
		httpx.RequestID,
		httpx.Logger(logger),
		httpx.CORS(nil),
	))
	if routes.Metrics != nil {
		r.Use(routes.Metrics.Middleware)
		r.Method(http.MethodGet, "/x/metrics", routes.Metrics.Handler())
	}

	humaAPI := humachi.New(r, api.Config(routes.Title, routes.Version))
	api.RegisterRoutes(humaAPI, routes.API)
	health.RegisterRoutes(humaAPI, routes.Health)

	routes.Web.RegisterRoutes(r)

	return otelhttp.NewHandler(r, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return "HTTP " + req.Method
		}),
	)
}
