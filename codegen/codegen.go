// Package codegen produces candidate short codes.
// A generated code is random, not unique: uniqueness is decided by the store.
package codegen

import (
	"fmt"
	"sync"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the 62-symbol set every code is drawn from.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MinLength is the shortest code Generate produces. nanoid reads its random
// bytes in blocks of length/5*8, so a shorter code would never fill.
const MinLength = 5

var errLengthTooShort = fmt.Errorf("length must be at least %d", MinLength)

// Generator generates short codes.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

type sized struct {
	mu   sync.Mutex
	next func() string
}

// base62Generator keeps one nanoid source per requested length; nanoid draws each
// symbol uniformly by masking and rejection, so no symbol is favoured.
type base62Generator struct {
	mu      sync.RWMutex
	sources map[int]*sized
}

// NewBase62 returns a Generator over Alphabet.
func NewBase62() Generator {
	return &base62Generator{sources: make(map[int]*sized)}
}

func (g *base62Generator) Generate(length int) (string, error) {
	if length < MinLength {
		return "", errLengthTooShort
	}

	src, err := g.source(length)
	if err != nil {
		return "", err
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	return src.next(), nil
}

func (g *base62Generator) source(length int) (*sized, error) {
	g.mu.RLock()
	src, ok := g.sources[length]
	g.mu.RUnlock()
	if ok {
		return src, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if src, ok := g.sources[length]; ok {
		return src, nil
	}

	next, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, err
	}
	src = &sized{next: next}
	g.sources[length] = src
	return src, nil
}
