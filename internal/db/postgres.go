// Package db provides the Postgres connection pool and the small query
// interfaces shared by repositories, so callers can run the same queries
// against the pool or inside a transaction.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx used by repositories.
// Both *pgxpool.Pool and pgx.Tx satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is a transactional query handle. pgx.Tx satisfies this interface.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB serves queries and begins transactions. Pool satisfies this interface;
// tests substitute in-memory fakes.
type DB interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}

// Pool wraps *pgxpool.Pool so Begin returns the Tx interface above.
type Pool struct {
	*pgxpool.Pool
}

// Begin starts a transaction. The caller must Commit or Rollback.
func (p Pool) Begin(ctx context.Context) (Tx, error) {
	return p.Pool.Begin(ctx)
}

// Open opens a Postgres connection pool using the given DSN and verifies it
// with a ping. Caller must call Close when done.
func Open(ctx context.Context, dsn string) (Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Pool{}, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return Pool{}, err
	}
	return Pool{pool}, nil
}
