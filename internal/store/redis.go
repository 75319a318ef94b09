package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/linkshortener/internal/config"
	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

// insertScript writes both keys of a link only if neither exists.
// Returns 0 on insert, 1 if the code is taken, 2 if the URL is taken.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 1
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 2
end
redis.call('HSET', KEYS[1], 'id', ARGV[1], 'long_url', ARGV[2], 'created_at', ARGV[3])
redis.call('SET', KEYS[2], ARGV[4])
return 0
`)

const (
	insertOK        = 0
	insertCodeTaken = 1
	insertURLTaken  = 2
)

// RedisStore keeps each link as a hash under <prefix>code:<code> and an index
// string under <prefix>url:<sha256(url)> holding the code.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   Options
	now    func() time.Time
}

// NewRedisStore wraps client. The store owns the client from then on.
func NewRedisStore(client *redis.Client, prefix string, opts Options) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

func (r *RedisStore) codeKey(code string) string {
	return r.prefix + "code:" + code
}

func (r *RedisStore) urlKey(longURL string) string {
	sum := sha256.Sum256([]byte(longURL))
	return r.prefix + "url:" + hex.EncodeToString(sum[:])
}

func (r *RedisStore) FindByCode(ctx context.Context, code string) (shortener.Link, error) {
	const op = "store.redis.FindByCode"

	ctx, cancel := withTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, r.codeKey(code)).Result()
	if err != nil {
		return shortener.Link{}, errx.E(op, errx.Unavailable, err)
	}
	if len(fields) == 0 {
		return shortener.Link{}, errx.E(op, errx.NotFound, errNoLink)
	}

	link, err := decodeLink(code, fields)
	if err != nil {
		return shortener.Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *RedisStore) FindByURL(ctx context.Context, longURL string) (shortener.Link, error) {
	const op = "store.redis.FindByURL"

	lookupCtx, cancel := withTimeout(ctx, r.opts.OpTimeout)
	code, err := r.client.Get(lookupCtx, r.urlKey(longURL)).Result()
	cancel()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shortener.Link{}, errx.E(op, errx.NotFound, errNoLink)
		}
		return shortener.Link{}, errx.E(op, errx.Unavailable, err)
	}

	link, err := r.FindByCode(ctx, code)
	if err != nil {
		return shortener.Link{}, errx.Wrap(op, err)
	}
	if link.LongURL != longURL {
		return shortener.Link{}, errx.E(op, errx.Internal,
			fmt.Errorf("url index for %q points at code %q holding another url", longURL, code))
	}
	return link, nil
}

func (r *RedisStore) TryInsert(ctx context.Context, code, longURL string) (shortener.Link, error) {
	const op = "store.redis.TryInsert"

	id, err := r.opts.IDs.Generate()
	if err != nil {
		return shortener.Link{}, errx.E(op, errx.Internal, err)
	}

	ctx, cancel := withTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	createdAt := r.now().UTC().Truncate(time.Microsecond)
	keys := []string{r.codeKey(code), r.urlKey(longURL)}

	res, err := insertScript.Run(ctx, r.client, keys,
		id.String(), longURL, createdAt.Format(time.RFC3339Nano), code,
	).Int()
	if err != nil {
		return shortener.Link{}, errx.E(op, errx.Unavailable, err)
	}

	switch res {
	case insertOK:
		return shortener.Link{ID: id, Code: code, LongURL: longURL, CreatedAt: createdAt}, nil
	case insertCodeTaken:
		return shortener.Link{}, errx.E(op, errx.Conflict, shortener.ErrCodeTaken)
	case insertURLTaken:
		return shortener.Link{}, errx.E(op, errx.Conflict, shortener.ErrURLTaken)
	default:
		return shortener.Link{}, errx.E(op, errx.Internal, fmt.Errorf("unexpected insert script result %d", res))
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.opts.OpTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errx.E("store.redis.Ping", errx.Unavailable, err)
	}
	return nil
}

func (r *RedisStore) Shutdown() error {
	return r.client.Close()
}

func decodeLink(code string, fields map[string]string) (shortener.Link, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return shortener.Link{}, fmt.Errorf("link %q: bad id: %w", code, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return shortener.Link{}, fmt.Errorf("link %q: bad created_at: %w", code, err)
	}
	longURL := fields["long_url"]
	if longURL == "" {
		return shortener.Link{}, fmt.Errorf("link %q: missing long_url", code)
	}
	return shortener.Link{ID: id, Code: code, LongURL: longURL, CreatedAt: createdAt}, nil
}

// ConnectRedis opens a client and verifies the server answers.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger.Info("connecting to redis", "addr", cfg.Addr, "db", cfg.DB)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established")

	return client, nil
}
