// Package store provides the mart's connection/transaction facility: a
// bounded pgxpool.Pool plus a scoped-transaction helper, generalized from
// the donor's DAL (sdk/dal/dal.go) acquire/query/release pattern.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pooled Postgres connection and exposes a scoped
// transaction helper. It is the only package in the mart that opens pgx
// connections; other packages run statements through the narrower
// Querier/TxFunc surface below (importing pgx at most for the
// pgx.ErrNoRows sentinel), which keeps the SQL dialect isolated per §1's "SQL
// dialect adapters ... out of scope" boundary — a non-Postgres adapter
// need only satisfy Querier.
type Store struct {
	pool *pgxpool.Pool
}

// CommandTag reports how many rows a statement affected, narrowing
// pgx.CommandTag to the one thing every caller in this module asks of it
// — keeping Querier satisfiable by a hand-rolled test fake (see
// internal/store/storetest) without pulling in pgconn.
type CommandTag interface {
	RowsAffected() int64
}

// Row is the single-row scan surface, narrowing pgx.Row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows is the multi-row iteration surface, narrowing pgx.Rows to what
// this module's callers actually use.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Querier is the minimal surface callers need to run statements, whether
// against the pool directly or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) Row
}

// Open creates a Store from a Postgres connection string, applying the
// pool bounds from §5 ("Bounded pool with [minIdle, maxOpen]").
func Open(ctx context.Context, connString string, minConns, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("store: parse config: %w", err)
	}
	cfg.MinConns = minConns
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// FromPool wraps an already-constructed pool (used by tests and by
// callers that want custom pgxpool.Config beyond minConns/maxConns).
func FromPool(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Pool exposes the underlying Querier for read-only callers (pagination,
// scope materialization) that don't need transactional scope.
func (s *Store) Pool() Querier { return pgxQuerier{s.pool} }

// pgxQuerier adapts any pgx v5 querying handle (*pgxpool.Pool, pgx.Tx) to
// Querier, boxing its pgx-typed return values behind this package's
// narrower CommandTag/Rows/Row interfaces.
type pgxQuerier struct {
	q interface {
		Exec(ctx context.Context, sql string, args ...interface{}) (pgx.CommandTag, error)
		Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
		QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	}
}

func (a pgxQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error) {
	tag, err := a.q.Exec(ctx, sql, args...)
	return tag, err
}

func (a pgxQuerier) Query(ctx context.Context, sql string, args ...interface{}) (Rows, error) {
	rows, err := a.q.Query(ctx, sql, args...)
	return rows, err
}

func (a pgxQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) Row {
	return a.q.QueryRow(ctx, sql, args...)
}

// TxFunc is the body of a scoped transaction: it receives a Querier bound
// to that transaction and returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Querier) error

// DB is the surface the journal/diff/pagination/scope engines depend on,
// narrow enough for a hand-rolled in-memory fake to satisfy in tests
// (internal/store/storetest) without a real Postgres. *Store satisfies it
// directly.
type DB interface {
	Pool() Querier
	WithTx(ctx context.Context, fn TxFunc) error
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic — the release is guaranteed on every exit
// path, per §5's connection-pool contract.
func (s *Store) WithTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(ctx, pgxQuerier{tx})
	return err
}
