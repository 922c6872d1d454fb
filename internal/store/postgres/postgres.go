// Package postgres implements the bills persistence boundary on PostgreSQL
// via pgx. One Store wraps a connection pool; WithTx runs a closure inside a
// database transaction and rolls back on error.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"homeledger/internal/bills"
)

// querier is the subset of pgx shared by a pool and a transaction, so the
// same query methods serve both paths.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// session implements bills.Tx over a querier.
type session struct {
	q querier
}

// Store implements bills.Store. Direct calls run against the pool with
// implicit per-statement transactions; WithTx brackets a closure in an
// explicit one.
type Store struct {
	session
	pool *pgxpool.Pool
}

// NewStore wraps an open connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{session: session{q: pool}, pool: pool}
}

// WithTx begins a transaction, runs fn against it, and commits; any error
// from fn rolls the whole transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx bills.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&session{q: tx})
	})
}

// Postgres error codes worth mapping to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translate maps driver errors onto the domain sentinels so callers can use
// errors.Is without importing pgx.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return bills.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", bills.ErrConflict, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", bills.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}

// notFound wraps ErrNotFound with what was being looked up.
func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", bills.ErrNotFound, what)
	}
	return translate(err)
}

// uuidStrings renders ids for an ANY($1::uuid[]) parameter.
func uuidStrings[T fmt.Stringer](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
