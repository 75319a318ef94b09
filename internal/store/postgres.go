package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sundayezeilo/linkshortener/internal/config"
	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	selectByCodeSQL = `
		SELECT id, short_code, long_url, created_at
		FROM links
		WHERE short_code = $1`

	selectByURLSQL = `
		SELECT id, short_code, long_url, created_at
		FROM links
		WHERE long_url = $1`

	insertLinkSQL = `
		INSERT INTO links (id, short_code, long_url)
		VALUES ($1, $2, $3)
		RETURNING created_at`
)

// PostgresStore is the PostgreSQL link store. Uniqueness of short_code and
// long_url is enforced by table constraints.
type PostgresStore struct {
	pool *pgxpool.Pool
	opts Options
}

// NewPostgresStore wraps an open pool. The store owns the pool from then on.
func NewPostgresStore(pool *pgxpool.Pool, opts Options) *PostgresStore {
	return &PostgresStore{pool: pool, opts: opts.withDefaults()}
}

func (p *PostgresStore) FindByCode(ctx context.Context, code string) (shortener.Link, error) {
	return p.findOne(ctx, "store.postgres.FindByCode", selectByCodeSQL, code)
}

func (p *PostgresStore) FindByURL(ctx context.Context, longURL string) (shortener.Link, error) {
	return p.findOne(ctx, "store.postgres.FindByURL", selectByURLSQL, longURL)
}

func (p *PostgresStore) findOne(ctx context.Context, op, query, arg string) (shortener.Link, error) {
	ctx, cancel := withTimeout(ctx, p.opts.OpTimeout)
	defer cancel()

	var link shortener.Link
	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&link.ID,
		&link.Code,
		&link.LongURL,
		&link.CreatedAt,
	)
	if err != nil {
		return shortener.Link{}, mapPgError(op, err)
	}
	return link, nil
}

// TryInsert is a single INSERT; a unique violation is reported, never retried here.
func (p *PostgresStore) TryInsert(ctx context.Context, code, longURL string) (shortener.Link, error) {
	const op = "store.postgres.TryInsert"

	id, err := p.opts.IDs.Generate()
	if err != nil {
		return shortener.Link{}, errx.E(op, errx.Internal, err)
	}

	ctx, cancel := withTimeout(ctx, p.opts.OpTimeout)
	defer cancel()

	link := shortener.Link{ID: id, Code: code, LongURL: longURL}
	if err := p.pool.QueryRow(ctx, insertLinkSQL, id, code, longURL).Scan(&link.CreatedAt); err != nil {
		return shortener.Link{}, mapPgError(op, err)
	}
	return link, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, p.opts.OpTimeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return errx.E("store.postgres.Ping", errx.Unavailable, err)
	}
	return nil
}

func (p *PostgresStore) Shutdown() error {
	p.pool.Close()
	return nil
}

// ConnectPostgres establishes a connection pool to the PostgreSQL database.
func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	logger.Info("connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}

// Migrate applies the embedded schema files in name order. Every statement is
// idempotent, so Migrate runs on each start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
