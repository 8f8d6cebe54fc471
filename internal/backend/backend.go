// Package backend opens the configured storage backend and applies its
// migrations. Both the API server and the CLI go through it.
package backend

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/slugkeeper/internal/config"
	"github.com/pkordes/slugkeeper/internal/repo"
	"github.com/pkordes/slugkeeper/internal/repo/sqlitestore"
	"github.com/pkordes/slugkeeper/migrations"
)

// Backend is an open store plus the handles needed to migrate and close it.
type Backend struct {
	Store  repo.Store
	Driver string

	sqlDB *sql.DB
	close func()
}

// Open connects to db and verifies it is reachable. Migrations are not
// applied; call Migrate.
func Open(ctx context.Context, db config.Database) (*Backend, error) {
	switch db.Driver {
	case migrations.Postgres:
		// New() does not open connections immediately; Ping does.
		pool, err := pgxpool.New(ctx, db.DSN)
		if err != nil {
			return nil, fmt.Errorf("backend.Open: create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("backend.Open: ping: %w", err)
		}
		sqlDB := stdlib.OpenDBFromPool(pool)
		return &Backend{
			Store:  repo.NewStore(pool),
			Driver: db.Driver,
			sqlDB:  sqlDB,
			close: func() {
				_ = sqlDB.Close()
				pool.Close()
			},
		}, nil

	case migrations.SQLite:
		store, err := sqlitestore.Open(db.DSN)
		if err != nil {
			return nil, fmt.Errorf("backend.Open: %w", err)
		}
		return &Backend{
			Store:  store,
			Driver: db.Driver,
			sqlDB:  store.DB(),
			close:  func() { _ = store.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("backend.Open: unknown driver %q", db.Driver)
	}
}

// Migrate applies pending migrations and returns how many ran.
func (b *Backend) Migrate(ctx context.Context) (int, error) {
	n, err := migrations.Up(ctx, b.Driver, b.sqlDB)
	if err != nil {
		return 0, fmt.Errorf("backend.Migrate: %w", err)
	}
	return n, nil
}

// Close releases every connection.
func (b *Backend) Close() {
	b.close()
}
