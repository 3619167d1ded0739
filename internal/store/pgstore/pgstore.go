// Package pgstore is the PostgreSQL implementation of store.Store, built
// on pgx. All queries are plain SQL with explicit column lists.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"goalmateAPI/internal/store"
)

// dbtx is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same query methods serve both the pool-bound store and the tx-bound one.
type dbtx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ store.Store = (*PGStore)(nil)

type PGStore struct {
	db   dbtx
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool, pool: pool}
}

// WithTx opens one transaction, runs fn against a tx-bound store and
// commits only when fn returns nil. The deferred rollback is a no-op
// after commit, so the session is released on every path. Calling WithTx
// from inside fn reuses the open transaction.
func (s *PGStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PGStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
