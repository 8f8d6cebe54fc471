// Package migrations embeds the SQL migration files for both supported
// dialects so they can be applied by the goose programmatic API from the
// server bootstrap, the CLI, and tests.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Driver names accepted by FS and Up.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// FS returns the migration files for driver, rooted so goose sees the
// *.sql files at the top level.
func FS(driver string) (fs.FS, error) {
	switch driver {
	case Postgres, SQLite:
		return fs.Sub(files, driver)
	default:
		return nil, fmt.Errorf("migrations: unknown driver %q", driver)
	}
}

// NewProvider builds a goose provider for driver over db.
func NewProvider(driver string, db *sql.DB) (*goose.Provider, error) {
	fsys, err := FS(driver)
	if err != nil {
		return nil, err
	}
	dialect := goose.DialectPostgres
	if driver == SQLite {
		dialect = goose.DialectSQLite3
	}
	return goose.NewProvider(dialect, db, fsys)
}

// Up applies every pending migration and returns how many ran.
func Up(ctx context.Context, driver string, db *sql.DB) (int, error) {
	provider, err := NewProvider(driver, db)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: %w", err)
	}
	return len(results), nil
}
