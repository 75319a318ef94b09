// Package api serves the JSON interface to the shortener, documented with OpenAPI.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/httpx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

// Shortener is the part of the shortening service the API uses.
type Shortener interface {
	Allocate(ctx context.Context, longURL string) (shortener.Allocation, error)
	Lookup(ctx context.Context, code string) (shortener.Link, error)
}

// Handler implements the link operations.
type Handler struct {
	svc     Shortener
	logger  *slog.Logger
	baseURL string
}

// NewHandler creates a new API handler. Short links are baseURL, a slash and the code.
func NewHandler(svc Shortener, baseURL string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:     svc,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CreateLink shortens a URL.
func (h *Handler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	alloc, err := h.svc.Allocate(ctx, strings.TrimSpace(req.Body.URL))
	if err != nil {
		return nil, h.fail(ctx, "link allocation failed", err)
	}

	resp := &CreateLinkResponse{Status: http.StatusCreated}
	if alloc.Status == shortener.Reused {
		resp.Status = http.StatusOK
	}
	resp.Body = h.linkBody(alloc.Link)
	resp.Body.Reused = alloc.Status == shortener.Reused
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

// GetLink returns the link stored under a code.
func (h *Handler) GetLink(ctx context.Context, req *GetLinkRequest) (*GetLinkResponse, error) {
	link, err := h.svc.Lookup(ctx, req.Code)
	if err != nil {
		return nil, h.fail(ctx, "link lookup failed", err)
	}
	return &GetLinkResponse{Body: h.linkBody(link)}, nil
}

func (h *Handler) linkBody(link shortener.Link) LinkBody {
	return LinkBody{
		Code:      link.Code,
		ShortURL:  h.baseURL + "/" + link.Code,
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt,
	}
}

// fail converts a service error into a problem response, logging the ones that
// are not the caller's fault.
func (h *Handler) fail(ctx context.Context, msg string, err error) error {
	kind := errx.KindOf(err)

	switch kind {
	case errx.Invalid:
		return huma.Error422UnprocessableEntity(cause(err).Error())
	case errx.NotFound:
		return huma.Error404NotFound("short link not found")
	}

	h.logger.ErrorContext(ctx, msg,
		append([]any{"request_id", httpx.GetRequestID(ctx)}, httpx.LogAttrs(err)...)...)

	switch kind {
	case errx.Unavailable:
		return huma.Error503ServiceUnavailable("link store unavailable")
	case errx.Exhausted:
		return huma.Error500InternalServerError(cause(err).Error())
	default:
		return huma.Error500InternalServerError("internal error")
	}
}

// cause returns the innermost error of the chain, the message written by the
// code that detected the problem.
func cause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// RegisterRoutes registers the link operations on api.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Shorten a URL",
		Description:   "Returns the existing link when the URL was shortened before (200), otherwise stores a new one (201).",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity, http.StatusInternalServerError, http.StatusServiceUnavailable},
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}",
		Summary:     "Look up a short link",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusServiceUnavailable},
	}, h.GetLink)
}

// Config returns the huma configuration with every generated document under /api.
func Config(title, version string) huma.Config {
	cfg := huma.DefaultConfig(title, version)
	cfg.OpenAPIPath = "/api/openapi"
	cfg.DocsPath = "/api/docs"
	cfg.SchemasPath = "/api/schemas"
	return cfg
}
