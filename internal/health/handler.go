// Package health reports whether the service can reach its link store.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const checkTimeout = 2 * time.Second

// Checker defines the interface for checking a dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler handles health check operations.
type Handler struct {
	store   Checker
	driver  string
	service string
	version string
}

// NewHandler creates a new health handler for the store behind driver.
func NewHandler(store Checker, driver, service, version string) *Handler {
	return &Handler{store: store, driver: driver, service: service, version: version}
}

// Response is the response for the health check endpoint. Status is 503 when the
// store is unreachable.
type Response struct {
	Status int
	Body   struct {
		Status  string `enum:"ok,degraded"  json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
		Store   struct {
			Driver string `json:"driver"`
			Status string `enum:"healthy,unhealthy" json:"status"`
		} `json:"store"`
	}
}

// Check pings the store.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{Status: http.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Service = h.service
	resp.Body.Version = h.version
	resp.Body.Store.Driver = h.driver

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = http.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		resp.Body.Store.Status = "unhealthy"
	} else {
		resp.Body.Store.Status = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/x/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
