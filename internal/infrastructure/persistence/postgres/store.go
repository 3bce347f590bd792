package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository method runs unchanged inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store provides PostgreSQL implementation of all repository interfaces.
//
// This store implements:
// - application/assignment.Repository (tasks, subtasks, diary and reminders)
// - application/messaging.Repository
// - application/analytics.Repository
// - application/worker.Repository (reminder dispatch)
// - application/holidays.Repository
// - application/catalog.Repository
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// Compile-time verification that Store implements all repository interfaces.
var (
	_ assignment.Repository = (*Store)(nil)
	_ messaging.Repository  = (*Store)(nil)
	_ analytics.Repository  = (*Store)(nil)
	_ worker.Repository     = (*Store)(nil)
	_ holidays.Repository   = (*Store)(nil)
	_ catalog.Repository    = (*Store)(nil)
)

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		db:   pool,
	}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// finalizeTx handles transaction cleanup for normal error/success cases.
// Rolls back on error, commits on success.
// Panics are handled in executeInTransaction before finalizeTx is called.
func finalizeTx(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		slog.ErrorContext(ctx, "transaction failed, rolling back",
			"error", *err)
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.ErrorContext(ctx, "rollback failed",
				"original_error", *err,
				"rollback_error", rbErr)
			*err = fmt.Errorf("transaction failed: %w (rollback error: %v)", *err, rbErr)
		}
	} else {
		*err = tx.Commit(ctx)
		if *err != nil {
			slog.ErrorContext(ctx, "transaction commit failed",
				"error", *err)
		}
	}
}

// executeInTransaction runs fn against a Store bound to a new transaction,
// with logging and panic recovery.
func (s *Store) executeInTransaction(ctx context.Context, operationName string, fn func(txStore *Store) error) (err error) {
	start := time.Now() //nolint:civiltime // monotonic, for the duration log

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to begin transaction",
			"operation", operationName,
			"error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "transaction panic, rolling back",
				"operation", operationName,
				"panic", p)
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed",
					"operation", operationName,
					"panic", p,
					"rollback_error", rbErr)
			}
			panic(p)
		}

		finalizeTx(ctx, tx, &err)
		if err == nil {
			slog.DebugContext(ctx, "transaction completed",
				"operation", operationName,
				"duration_ms", time.Since(start).Milliseconds())
		}
	}()

	txStore := &Store{
		pool: s.pool,
		db:   tx,
	}

	err = fn(txStore)
	return
}

// Atomic executes a callback function within a database transaction.
// All operations inside the callback succeed together or fail together.
func (s *Store) Atomic(ctx context.Context, fn func(tx assignment.Repository) error) error {
	return s.executeInTransaction(ctx, "atomic", func(txStore *Store) error {
		return fn(txStore)
	})
}
