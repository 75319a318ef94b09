// Package idgen mints the row identifiers stored alongside each link.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator generates link IDs. Implementations must be safe for concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

// Func adapts a plain function to Generator.
type Func func() (uuid.UUID, error)

func (f Func) Generate() (uuid.UUID, error) { return f() }

type v7Gen struct {
	maxRetries int
	source     func() (uuid.UUID, error)
}

type V7Option func(*v7Gen)

// WithRetries sets how many times to retry after a failed first attempt.
// Defaults to 1. Set to 0 to disable retries.
func WithRetries(n int) V7Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// withSource replaces uuid.NewV7, for tests.
func withSource(src func() (uuid.UUID, error)) V7Option {
	return func(g *v7Gen) { g.source = src }
}

// NewV7 returns a Generator of time-ordered UUIDs, which keep the links
// primary key index append-mostly.
func NewV7(opts ...V7Option) Generator {
	g := &v7Gen{maxRetries: 1, source: uuid.NewV7}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	var last error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		id, err := g.source()
		if err == nil {
			return id, nil
		}
		last = err
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.maxRetries+1, last)
}
