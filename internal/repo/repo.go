// Package repo contains all database access logic for slugkeeper.
// The interfaces here are what the service layer depends on; this package
// carries the Postgres implementation and repo/sqlitestore carries the SQLite one.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// Store groups the repos that make up one unit of work.
// InTx runs fn against a Store whose repos share a single transaction;
// the transaction commits when fn returns nil and rolls back otherwise.
// Calling InTx on a Store that is already transactional reuses it.
type Store interface {
	Subjects() SubjectRepo
	Slugs() SlugRepo
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// SubjectRepo persists subjects and their current slug column.
type SubjectRepo interface {
	// Create inserts a new subject and returns it with id and timestamps set.
	// The slug column starts empty; it is set by UpdateSlug.
	Create(ctx context.Context, s domain.Subject) (domain.Subject, error)

	// GetByID retrieves a subject by type and primary key.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, subjectType string, id int64) (domain.Subject, error)

	// GetBySlug retrieves the subject whose current slug equals slug.
	// A nil scope matches any scope. Returns domain.ErrNotFound on no match.
	GetBySlug(ctx context.Context, subjectType string, scope *string, slug string) (domain.Subject, error)

	// List returns one page of subjects of a type ordered by id, and the total count.
	List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error)

	// UpdateSlug sets the current slug. Returns domain.ErrConflict if another
	// subject of the same type and scope already holds it.
	UpdateSlug(ctx context.Context, subjectType string, id int64, slug string) error

	// Delete removes a subject. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, subjectType string, id int64) error

	// Conflicts returns the current slugs of other subjects colliding with
	// q.Candidate, longest first then lexically descending.
	Conflicts(ctx context.Context, q ConflictQuery) ([]string, error)
}

// SlugRepo is the identifier store: the append-mostly log of every slug a
// subject has held.
type SlugRepo interface {
	// Record inserts a row for s holding slug unless s's most recent row
	// already has that text. Reports whether a row was inserted.
	// Returns domain.ErrConflict if another subject holds the slug.
	Record(ctx context.Context, s domain.Subject, slug string) (bool, error)

	// MostRecent returns the subject's newest row.
	// Returns domain.ErrNotFound if the subject has no history.
	MostRecent(ctx context.Context, subjectType string, subjectID int64) (domain.SlugRecord, error)

	// FindBySlug returns the ids of subjects holding slug in any scope, newest first.
	FindBySlug(ctx context.Context, subjectType, slug string) ([]int64, error)

	// LockBySlug reads the rows holding (subjectType, scope, slug) with a
	// row lock that is held until the enclosing transaction ends.
	LockBySlug(ctx context.Context, subjectType, scope, slug string) ([]domain.SlugRecord, error)

	// DeleteOthers removes rows holding slug in s's type and scope that
	// belong to subjects other than s. Returns the number of rows removed.
	DeleteOthers(ctx context.Context, s domain.Subject, slug string) (int64, error)

	// Revive makes an existing row the most recent one for its subject.
	Revive(ctx context.Context, id uuid.UUID) error

	// ListBySubject returns all rows for a subject, newest first.
	ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]domain.SlugRecord, error)

	// DeleteBySubject removes every row of a subject.
	DeleteBySubject(ctx context.Context, subjectType string, subjectID int64) (int64, error)

	// Conflicts returns the slugs recorded for other subjects colliding with
	// q.Candidate, longest first then lexically descending.
	Conflicts(ctx context.Context, q ConflictQuery) ([]string, error)

	// Export returns every row joined with its subject's current slug,
	// ordered by type, subject id, and recency.
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows (and by *sql.Row and
// *sql.Rows), allowing scan helpers to serve QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}
