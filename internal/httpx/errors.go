package httpx

import (
	"net/http"

	"github.com/sundayezeilo/linkshortener/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	case errx.Exhausted, errx.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Conflict:
		return "conflict"
	case errx.Invalid:
		return "invalid_input"
	case errx.Exhausted:
		return "code_space_exhausted"
	case errx.Unavailable:
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

// LogAttrs returns slog attributes describing err, for handlers logging a failed call.
func LogAttrs(err error) []any {
	return []any{
		"error", err,
		"error_kind", errx.KindOf(err).String(),
		"error_code", ErrorKindToCode(errx.KindOf(err)),
		"operation", errx.OpOf(err),
	}
}
