package shortener

import (
	"context"
	"errors"
)

// Conflict causes a Store attaches to an errx.Conflict from TryInsert.
var (
	ErrCodeTaken = errors.New("short code already exists")
	ErrURLTaken  = errors.New("long url already shortened")
)

// Store is the persistent mapping between short codes and long URLs.
//
// Lookups return an errx.NotFound error when nothing matches. TryInsert must
// enforce uniqueness of both code and URL atomically and report a violation as
// errx.Conflict wrapping ErrCodeTaken or ErrURLTaken; every other failure,
// timeouts included, is errx.Unavailable. Implementations must be safe for
// concurrent use.
type Store interface {
	FindByCode(ctx context.Context, code string) (Link, error)
	FindByURL(ctx context.Context, longURL string) (Link, error)
	TryInsert(ctx context.Context, code, longURL string) (Link, error)
}
