package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/linkshortener/internal/errx"
	"github.com/sundayezeilo/linkshortener/internal/shortener"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	codeUniqueConstraint = "links_short_code_unique"
	urlUniqueConstraint  = "links_long_url_unique"
)

// mapPgError converts a pgx error into an errx error. Unique violations on
// short_code and long_url carry shortener.ErrCodeTaken and ErrURLTaken.
func mapPgError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case codeUniqueConstraint:
				return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", shortener.ErrCodeTaken, err))
			case urlUniqueConstraint:
				return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", shortener.ErrURLTaken, err))
			default:
				return errx.E(op, errx.Conflict, err)
			}
		case pgCheckViolation:
			return errx.E(op, errx.Invalid, err)
		}
	}

	return errx.E(op, errx.Unavailable, err)
}
