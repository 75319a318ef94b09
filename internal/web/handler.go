// Package web serves the HTML front end: the shortening form and the redirect
// for short links.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/httpx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// FormField is the form field holding the URL to shorten.
const FormField = "long_url"

const (
	msgNotFound     = "Error: The short link '%s' was not found."
	msgLookupFailed = "Database Query Error during lookup."
	msgInvalidURL   = "Error: Please enter a valid URL (must include http:// or https://)."
	msgReused       = "This URL was already shortened! Reusing existing link."
	msgCreated      = "URL shortened successfully!"
	msgExhausted    = "Error: Failed to generate a unique code after %d attempts. Database conflict may exist."
	msgStoreDown    = "Database Connection Error: Cannot reach the link store."
)

// maxFormBytes caps the POST body; a valid URL never comes close.
const maxFormBytes = 16 << 10

// Shortener is the part of the shortening service the pages use.
type Shortener interface {
	Allocate(ctx context.Context, longURL string) (shortener.Allocation, error)
	Resolve(ctx context.Context, code string) (string, error)
}

type page struct {
	Message   string
	Class     string
	ShortLink string
	LongURL   string
}

// Handler renders the page and performs redirects.
type Handler struct {
	svc     Shortener
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for creating a Handler.
type HandlerConfig struct {
	Service Shortener
	Logger  *slog.Logger
	// BaseURL prefixes every short link shown to the user.
	BaseURL string
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:     cfg.Service,
		logger:  logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// RegisterRoutes mounts the page routes. Any other path is answered with the
// page and a not-found message.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/", h.Shorten)
	r.Get("/{code}", h.Redirect)
	r.NotFound(h.NotFound)
}

func (h *Handler) shortLink(code string) string {
	return h.baseURL + "/" + code
}

// Index renders the empty form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, page{})
}

// NotFound renders the form with a not-found message for the requested path.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	code := strings.Trim(r.URL.Path, "/")
	h.render(w, r, http.StatusNotFound, page{
		Message: fmt.Sprintf(msgNotFound, code),
		Class:   "error",
	})
}

// Redirect answers GET /{code} with a permanent redirect to the stored URL.
// A blank code is no lookup at all; the form is rendered instead.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		h.Index(w, r)
		return
	}

	longURL, err := h.svc.Resolve(r.Context(), code)
	if err == nil {
		http.Redirect(w, r, longURL, http.StatusMovedPermanently)
		return
	}

	switch errx.KindOf(err) {
	case errx.NotFound, errx.Invalid:
		h.render(w, r, http.StatusNotFound, page{
			Message: fmt.Sprintf(msgNotFound, code),
			Class:   "error",
		})
	default:
		h.logger.ErrorContext(r.Context(), "short link lookup failed",
			append([]any{"code", code, "request_id", httpx.GetRequestID(r.Context())}, httpx.LogAttrs(err)...)...)
		h.render(w, r, http.StatusServiceUnavailable, page{
			Message: msgLookupFailed,
			Class:   "error",
		})
	}
}

// Shorten handles the form POST.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, page{Message: msgInvalidURL, Class: "error"})
		return
	}
	longURL := strings.TrimSpace(r.PostFormValue(FormField))

	alloc, err := h.svc.Allocate(r.Context(), longURL)
	if err == nil {
		msg := msgCreated
		if alloc.Status == shortener.Reused {
			msg = msgReused
		}
		h.render(w, r, http.StatusOK, page{
			Message:   msg,
			Class:     "success",
			ShortLink: h.shortLink(alloc.Link.Code),
		})
		return
	}

	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)
	reqAttrs := []any{"request_id", httpx.GetRequestID(r.Context())}

	switch kind {
	case errx.Invalid:
		h.render(w, r, status, page{Message: msgInvalidURL, Class: "error", LongURL: longURL})

	case errx.Exhausted:
		attempts := 0
		var exhausted *shortener.ExhaustedError
		if errors.As(err, &exhausted) {
			attempts = exhausted.Attempts
		}
		h.logger.ErrorContext(r.Context(), "short code allocation exhausted",
			append(append(reqAttrs, "attempts", attempts), httpx.LogAttrs(err)...)...)
		h.render(w, r, status, page{
			Message: fmt.Sprintf(msgExhausted, attempts),
			Class:   "error",
			LongURL: longURL,
		})

	default:
		h.logger.ErrorContext(r.Context(), "short link allocation failed",
			append(reqAttrs, httpx.LogAttrs(err)...)...)
		h.render(w, r, status, page{Message: msgStoreDown, Class: "error", LongURL: longURL})
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	if err := httpx.WriteHTML(w, status, pageTemplate, "index", p); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			"request_id", httpx.GetRequestID(r.Context()),
			"error", err,
		)
	}
}
