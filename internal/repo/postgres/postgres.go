package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// repo is embedded by every table repo: pool access plus DB metrics.
type repo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (r repo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// inTx runs fn in a transaction, rolling back unless fn and the commit succeed.
func (r repo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func pgError(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports a 23505 on the named constraint (any constraint when empty).
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err, pgUniqueViolation)
	return ok && (constraint == "" || pgErr.ConstraintName == constraint)
}

func IsForeignKeyViolation(err error, constraint string) bool {
	pgErr, ok := pgError(err, pgForeignKeyViolation)
	return ok && (constraint == "" || pgErr.ConstraintName == constraint)
}

func IsCheckViolation(err error) bool {
	_, ok := pgError(err, pgCheckViolation)
	return ok
}
