package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// pgSubjectRepo is the Postgres implementation of SubjectRepo.
type pgSubjectRepo struct {
	db db
}

const subjectColumns = `subject_type, id, slug, scope, source, created_at, updated_at`

// Create inserts a new subject row and returns the full persisted record.
func (r *pgSubjectRepo) Create(ctx context.Context, s domain.Subject) (domain.Subject, error) {
	const q = `
		INSERT INTO subjects (subject_type, scope, source)
		VALUES (@subject_type, @scope, @source)
		RETURNING ` + subjectColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"subject_type": s.Type,
		"scope":        s.Scope,
		"source":       s.Source,
	})
	result, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("repo.SubjectRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a subject by primary key.
func (r *pgSubjectRepo) GetByID(ctx context.Context, subjectType string, id int64) (domain.Subject, error) {
	const q = `
		SELECT ` + subjectColumns + `
		FROM subjects
		WHERE subject_type = @subject_type AND id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "id": id})
	result, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("repo.SubjectRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetBySlug retrieves a subject by its current slug. When scope is nil and
// the slug is held in several scopes, the oldest subject wins.
func (r *pgSubjectRepo) GetBySlug(ctx context.Context, subjectType string, scope *string, slug string) (domain.Subject, error) {
	const q = `
		SELECT ` + subjectColumns + `
		FROM subjects
		WHERE subject_type = @subject_type
		  AND slug = @slug
		  AND (@scope::text IS NULL OR scope = @scope)
		ORDER BY id
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "slug": slug, "scope": scope})
	result, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("repo.SubjectRepo.GetBySlug: %w", err)
	}
	return result, nil
}

// List returns one page of subjects of a type ordered by id.
func (r *pgSubjectRepo) List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error) {
	const countQ = `SELECT count(*) FROM subjects WHERE subject_type = @subject_type`
	const q = `
		SELECT ` + subjectColumns + `
		FROM subjects
		WHERE subject_type = @subject_type
		ORDER BY id
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"subject_type": subjectType}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.SubjectRepo.List: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"subject_type": subjectType,
		"limit":        p.Limit,
		"offset":       p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.SubjectRepo.List: %w", err)
	}
	defer rows.Close()

	subjects := []domain.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.SubjectRepo.List: scan: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.SubjectRepo.List: rows: %w", err)
	}
	return subjects, total, nil
}

// UpdateSlug overwrites the current slug of a subject.
func (r *pgSubjectRepo) UpdateSlug(ctx context.Context, subjectType string, id int64, slug string) error {
	const q = `
		UPDATE subjects
		SET slug = @slug, updated_at = now()
		WHERE subject_type = @subject_type AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "id": id, "slug": slug})
	if err != nil {
		return fmt.Errorf("repo.SubjectRepo.UpdateSlug: %w", mapWriteErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SubjectRepo.UpdateSlug: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes a subject by primary key.
func (r *pgSubjectRepo) Delete(ctx context.Context, subjectType string, id int64) error {
	const q = `DELETE FROM subjects WHERE subject_type = @subject_type AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "id": id})
	if err != nil {
		return fmt.Errorf("repo.SubjectRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SubjectRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Conflicts returns current slugs of other subjects that collide with q.Candidate.
func (r *pgSubjectRepo) Conflicts(ctx context.Context, q ConflictQuery) ([]string, error) {
	sql, args, err := BuildConflictQuery(Postgres, "subjects", "id", q)
	if err != nil {
		return nil, fmt.Errorf("repo.SubjectRepo.Conflicts: build: %w", err)
	}
	slugs, err := collectSlugs(ctx, r.db, sql, args)
	if err != nil {
		return nil, fmt.Errorf("repo.SubjectRepo.Conflicts: %w", err)
	}
	return slugs, nil
}

// collectSlugs runs a single-column text query and gathers the results.
func collectSlugs(ctx context.Context, db db, sql string, args []any) ([]string, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	slugs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return slugs, nil
}

// scanSubject maps a single database row into a domain.Subject.
// A NULL slug (not yet assigned) becomes "".
func scanSubject(s scanner) (domain.Subject, error) {
	var (
		out  domain.Subject
		slug pgtype.Text
	)
	err := s.Scan(&out.Type, &out.ID, &slug, &out.Scope, &out.Source, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subject{}, domain.ErrNotFound
		}
		return domain.Subject{}, err
	}
	out.Slug = slug.String
	return out, nil
}
