package web

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

type fakeShortener struct {
	allocateFunc func(ctx context.Context, longURL string) (shortener.Allocation, error)
	resolveFunc  func(ctx context.Context, code string) (string, error)

	allocated []string
}

func (f *fakeShortener) Allocate(ctx context.Context, longURL string) (shortener.Allocation, error) {
	f.allocated = append(f.allocated, longURL)
	if f.allocateFunc != nil {
		return f.allocateFunc(ctx, longURL)
	}
	return shortener.Allocation{
		Link:   shortener.Link{Code: "Ab3xY9z", LongURL: longURL},
		Status: shortener.Created,
	}, nil
}

func (f *fakeShortener) Resolve(ctx context.Context, code string) (string, error) {
	if f.resolveFunc != nil {
		return f.resolveFunc(ctx, code)
	}
	return "", errx.E("fake.Resolve", errx.NotFound, errors.New("no link"))
}

func newTestRouter(svc Shortener) http.Handler {
	h := NewHandler(HandlerConfig{
		Service: svc,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		BaseURL: "http://localhost:8080/",
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postForm(t *testing.T, handler http.Handler, longURL string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{FormField: {longURL}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func body(rr *httptest.ResponseRecorder) string {
	return html.UnescapeString(rr.Body.String())
}

func TestIndex(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(&fakeShortener{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `name="long_url"`)
	assert.Contains(t, rr.Body.String(), "navigator.clipboard")
	assert.NotContains(t, rr.Body.String(), `class="message`)
	assert.NotContains(t, rr.Body.String(), "result-box\">")
}

func TestRedirect(t *testing.T) {
	t.Run("known code redirects permanently", func(t *testing.T) {
		svc := &fakeShortener{
			resolveFunc: func(ctx context.Context, code string) (string, error) {
				require.Equal(t, "Ab3xY9z", code)
				return "https://example.com/page?id=1", nil
			},
		}

		rr := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/Ab3xY9z", nil))

		assert.Equal(t, http.StatusMovedPermanently, rr.Code)
		assert.Equal(t, "https://example.com/page?id=1", rr.Header().Get("Location"))
	})

	t.Run("unknown code renders not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestRouter(&fakeShortener{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/zzzzzzz", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, body(rr), "Error: The short link 'zzzzzzz' was not found.")
		assert.Empty(t, rr.Header().Get("Location"))
	})

	t.Run("store failure renders lookup error", func(t *testing.T) {
		svc := &fakeShortener{
			resolveFunc: func(ctx context.Context, code string) (string, error) {
				return "", errx.E("fake.Resolve", errx.Unavailable, errors.New("connection refused"))
			},
		}

		rr := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/Ab3xY9z", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, body(rr), "Database Query Error during lookup.")
		assert.NotContains(t, body(rr), "was not found")
	})

	t.Run("blank code renders the form without a lookup", func(t *testing.T) {
		svc := &fakeShortener{
			resolveFunc: func(ctx context.Context, code string) (string, error) {
				t.Errorf("Resolve called with %q", code)
				return "", nil
			},
		}

		rr := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/%20%20", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, body(rr), "was not found")
		assert.Empty(t, rr.Header().Get("Location"))
	})

	t.Run("surrounding spaces are trimmed before lookup", func(t *testing.T) {
		svc := &fakeShortener{
			resolveFunc: func(ctx context.Context, code string) (string, error) {
				require.Equal(t, "Ab3xY9z", code)
				return "https://example.com/a", nil
			},
		}

		rr := httptest.NewRecorder()
		newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/%20Ab3xY9z%20", nil))

		assert.Equal(t, http.StatusMovedPermanently, rr.Code)
		assert.Equal(t, "https://example.com/a", rr.Header().Get("Location"))
	})

	t.Run("code is escaped in the page", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestRouter(&fakeShortener{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/%3Cb%3E", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NotContains(t, rr.Body.String(), "<b>")
	})
}

func TestUnmatchedPath(t *testing.T) {
	svc := &fakeShortener{
		resolveFunc: func(ctx context.Context, code string) (string, error) {
			t.Errorf("Resolve called for unmatched path with %q", code)
			return "", nil
		},
	}

	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/abc/", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body(rr), "Error: The short link 'abc' was not found.")
}

func TestShorten(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeShortener{}
		rr := postForm(t, newTestRouter(svc), "https://example.com/page?id=1")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, body(rr), "URL shortened successfully!")
		assert.Contains(t, body(rr), `href="http://localhost:8080/Ab3xY9z"`)
		assert.Equal(t, []string{"https://example.com/page?id=1"}, svc.allocated)
	})

	t.Run("reused", func(t *testing.T) {
		svc := &fakeShortener{
			allocateFunc: func(ctx context.Context, longURL string) (shortener.Allocation, error) {
				return shortener.Allocation{
					Link:   shortener.Link{Code: "abc1234", LongURL: longURL},
					Status: shortener.Reused,
				}, nil
			},
		}
		rr := postForm(t, newTestRouter(svc), "https://example.com/docs")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, body(rr), "This URL was already shortened! Reusing existing link.")
		assert.Contains(t, body(rr), "http://localhost:8080/abc1234")
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		svc := &fakeShortener{}
		postForm(t, newTestRouter(svc), "  https://example.com/x \n")

		assert.Equal(t, []string{"https://example.com/x"}, svc.allocated)
	})

	t.Run("invalid url", func(t *testing.T) {
		svc := &fakeShortener{
			allocateFunc: func(ctx context.Context, longURL string) (shortener.Allocation, error) {
				return shortener.Allocation{}, errx.E("fake.Allocate", errx.Invalid, shortener.ValidateURL(longURL))
			},
		}

		for _, input := range []string{"not a url", "", "ftp://x"} {
			rr := postForm(t, newTestRouter(svc), input)

			assert.Equal(t, http.StatusBadRequest, rr.Code, input)
			assert.Contains(t, body(rr), "Error: Please enter a valid URL (must include http:// or https://).", input)
			assert.NotContains(t, rr.Body.String(), "result-box\">", input)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		svc := &fakeShortener{
			allocateFunc: func(ctx context.Context, longURL string) (shortener.Allocation, error) {
				return shortener.Allocation{}, errx.E("fake.Allocate", errx.Exhausted, &shortener.ExhaustedError{Attempts: 5})
			},
		}
		rr := postForm(t, newTestRouter(svc), "https://example.com")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, body(rr),
			"Error: Failed to generate a unique code after 5 attempts. Database conflict may exist.")
	})

	t.Run("store unavailable", func(t *testing.T) {
		svc := &fakeShortener{
			allocateFunc: func(ctx context.Context, longURL string) (shortener.Allocation, error) {
				return shortener.Allocation{}, errx.E("fake.Allocate", errx.Unavailable, errors.New("timeout"))
			},
		}
		rr := postForm(t, newTestRouter(svc), "https://example.com")

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, body(rr), "Database Connection Error: Cannot reach the link store.")
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		svc := &fakeShortener{}
		rr := postForm(t, newTestRouter(svc), "https://example.com/"+strings.Repeat("a", maxFormBytes))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, svc.allocated)
	})
}

// The documented walk-through: allocate, reuse, redirect, miss, reject.
func TestScenario(t *testing.T) {
	store := newScenarioStore()
	svc := shortener.NewService(store, nil)
	router := newTestRouter(svc)

	rr := postForm(t, router, "https://example.com/page?id=1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, body(rr), "URL shortened successfully!")
	code := store.onlyCode(t)
	assert.Contains(t, body(rr), "http://localhost:8080/"+code)

	rr = postForm(t, router, "https://example.com/page?id=1")
	assert.Contains(t, body(rr), "This URL was already shortened! Reusing existing link.")
	assert.Contains(t, body(rr), "http://localhost:8080/"+code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/"+code, nil))
	assert.Equal(t, http.StatusMovedPermanently, rr.Code)
	assert.Equal(t, "https://example.com/page?id=1", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/zzzzzzz", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body(rr), "Error: The short link 'zzzzzzz' was not found.")

	rr = postForm(t, router, "not a url")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, body(rr), "Error: Please enter a valid URL")
	assert.Len(t, store.links, 1)
}

type scenarioStore struct {
	links map[string]shortener.Link
}

func newScenarioStore() *scenarioStore {
	return &scenarioStore{links: map[string]shortener.Link{}}
}

func (s *scenarioStore) onlyCode(t *testing.T) string {
	t.Helper()
	require.Len(t, s.links, 1)
	for code := range s.links {
		return code
	}
	return ""
}

func (s *scenarioStore) FindByCode(_ context.Context, code string) (shortener.Link, error) {
	if l, ok := s.links[code]; ok {
		return l, nil
	}
	return shortener.Link{}, errx.E("scenario.FindByCode", errx.NotFound, fmt.Errorf("no link %q", code))
}

func (s *scenarioStore) FindByURL(_ context.Context, longURL string) (shortener.Link, error) {
	for _, l := range s.links {
		if l.LongURL == longURL {
			return l, nil
		}
	}
	return shortener.Link{}, errx.E("scenario.FindByURL", errx.NotFound, errors.New("no link"))
}

func (s *scenarioStore) TryInsert(_ context.Context, code, longURL string) (shortener.Link, error) {
	if _, ok := s.links[code]; ok {
		return shortener.Link{}, errx.E("scenario.TryInsert", errx.Conflict, shortener.ErrCodeTaken)
	}
	l := shortener.Link{Code: code, LongURL: longURL}
	s.links[code] = l
	return l, nil
}
