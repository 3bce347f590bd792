// Package persistence opens the configured store.
package persistence

import (
	"context"
	"fmt"

	"github.com/rezkam/awe/internal/application/analytics"
	"github.com/rezkam/awe/internal/application/assignment"
	"github.com/rezkam/awe/internal/application/catalog"
	"github.com/rezkam/awe/internal/application/holidays"
	"github.com/rezkam/awe/internal/application/messaging"
	"github.com/rezkam/awe/internal/application/worker"
	"github.com/rezkam/awe/internal/config"
	"github.com/rezkam/awe/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/awe/internal/infrastructure/persistence/sqlite"
)

// Store is everything the services and the dispatcher need from storage.
// Both *postgres.Store and *sqlite.Store implement it.
type Store interface {
	assignment.Repository
	analytics.Repository
	messaging.Repository
	holidays.Repository
	catalog.Repository
	worker.Repository

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open connects to the store selected by cfg.Driver and migrates it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
