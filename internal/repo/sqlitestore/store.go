// Package sqlitestore is the SQLite implementation of the repo interfaces.
// It backs the CLI, single-node deployments, and the end-to-end tests.
//
// SQLite has no row locks; transactions are opened with BEGIN IMMEDIATE so
// every write transaction holds the database write lock from its first
// statement, which is at least as strong as the Postgres FOR UPDATE path.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
)

// timeFormat is fixed-width so text ordering matches time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements repo.Store on a SQLite database.
type Store struct {
	db   *sql.DB
	ex   execer
	inTx bool
	now  func() time.Time
}

var _ repo.Store = (*Store)(nil)

// Open creates or opens the SQLite database at path.
//
// The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - immediate transactions so writers serialize at BEGIN
//
// Migrations are not applied; call migrations.Up with DB().
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?" + strings.Join([]string{
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_txlock=immediate",
	}, "&")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore.Open: ping: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, ex: db, now: time.Now}, nil
}

// DB returns the underlying *sql.DB, e.g. for running migrations.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Subjects() repo.SubjectRepo { return &subjectRepo{ex: s.ex, now: s.now} }
func (s *Store) Slugs() repo.SlugRepo       { return &slugRepo{ex: s.ex, now: s.now} }

// InTx runs fn inside a transaction. A store that is already transactional
// passes itself through.
func (s *Store) InTx(ctx context.Context, fn func(tx repo.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore.InTx: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Store{db: s.db, ex: tx, inTx: true, now: s.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore.InTx: commit: %w", mapWriteErr(err))
	}
	return nil
}

// mapWriteErr converts a unique constraint failure into domain.ErrConflict.
func mapWriteErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", domain.ErrConflict, se.Error())
		}
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}
