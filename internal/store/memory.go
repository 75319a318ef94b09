package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

var errNoLink = errors.New("no link matches")

// MemoryStore keeps links in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[string]shortener.Link
	byURL  map[string]string
	opts   Options
	now    func() time.Time
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		byCode: make(map[string]shortener.Link),
		byURL:  make(map[string]string),
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

func (m *MemoryStore) FindByCode(ctx context.Context, code string) (shortener.Link, error) {
	const op = "store.memory.FindByCode"
	if err := ctx.Err(); err != nil {
		return shortener.Link{}, errx.E(op, errx.Unavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.byCode[code]
	if !ok {
		return shortener.Link{}, errx.E(op, errx.NotFound, errNoLink)
	}
	return link, nil
}

func (m *MemoryStore) FindByURL(ctx context.Context, longURL string) (shortener.Link, error) {
	const op = "store.memory.FindByURL"
	if err := ctx.Err(); err != nil {
		return shortener.Link{}, errx.E(op, errx.Unavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byURL[longURL]
	if !ok {
		return shortener.Link{}, errx.E(op, errx.NotFound, errNoLink)
	}
	return m.byCode[code], nil
}

func (m *MemoryStore) TryInsert(ctx context.Context, code, longURL string) (shortener.Link, error) {
	const op = "store.memory.TryInsert"
	if err := ctx.Err(); err != nil {
		return shortener.Link{}, errx.E(op, errx.Unavailable, err)
	}

	id, err := m.opts.IDs.Generate()
	if err != nil {
		return shortener.Link{}, errx.E(op, errx.Internal, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byCode[code]; ok {
		return shortener.Link{}, errx.E(op, errx.Conflict, shortener.ErrCodeTaken)
	}
	if _, ok := m.byURL[longURL]; ok {
		return shortener.Link{}, errx.E(op, errx.Conflict, shortener.ErrURLTaken)
	}

	link := shortener.Link{
		ID:        id,
		Code:      code,
		LongURL:   longURL,
		CreatedAt: m.now().UTC(),
	}
	m.byCode[code] = link
	m.byURL[longURL] = code
	return link, nil
}

// Len reports the number of stored links.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byCode)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Shutdown() error { return nil }
