// Package sqlite is an embedded SQLite implementation of the repository
// interfaces, used for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// querier is the statement surface shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists the scheduling data in a SQLite database.
type Store struct {
	db *sql.DB
	q  querier
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

// Open opens (or creates) the database at path and migrates it. Use ":memory:"
// for a private in-memory database. The caller is responsible for calling Close.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, q: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Atomic runs fn in one transaction. fn must only use tx: the store holds a
// single connection, so queries through s would wait on the transaction.
func (s *Store) Atomic(ctx context.Context, fn func(tx assignment.Repository) error) (err error) {
	start := time.Now() //nolint:civiltime // monotonic, for the duration log

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "transaction panic, rolling back", "panic", p)
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
			}
			return
		}
		if err = tx.Commit(); err != nil {
			slog.ErrorContext(ctx, "transaction commit failed", "error", err)
			return
		}
		slog.DebugContext(ctx, "transaction completed", "duration_ms", time.Since(start).Milliseconds())
	}()

	err = fn(&Store{db: s.db, q: tx})
	return err
}
