package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
)

type subjectRepo struct {
	ex  execer
	now func() time.Time
}

const subjectColumns = `subject_type, id, slug, scope, source, created_at, updated_at`

func (r *subjectRepo) Create(ctx context.Context, s domain.Subject) (domain.Subject, error) {
	const q = `
		INSERT INTO subjects (subject_type, scope, source, created_at, updated_at)
		VALUES (@subject_type, @scope, @source, @now, @now)
		RETURNING ` + subjectColumns

	row := r.ex.QueryRowContext(ctx, q,
		sql.Named("subject_type", s.Type),
		sql.Named("scope", s.Scope),
		sql.Named("source", s.Source),
		sql.Named("now", formatTime(r.now())),
	)
	result, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("sqlitestore.SubjectRepo.Create: %w", err)
	}
	return result, nil
}

func (r *subjectRepo) GetByID(ctx context.Context, subjectType string, id int64) (domain.Subject, error) {
	const q = `
		SELECT ` + subjectColumns + `
		FROM subjects
		WHERE subject_type = @subject_type AND id = @id`

	row := r.ex.QueryRowContext(ctx, q, sql.Named("subject_type", subjectType), sql.Named("id", id))
	result, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("sqlitestore.SubjectRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *subjectRepo) GetBySlug(ctx context.Context, subjectType string, scope *string, slug string) (domain.Subject, error) {
	const q = `
		SELECT ` + subjectColumns + `
		FROM subjects
		WHERE subject_type = @subject_type
		  AND slug = @slug
		  AND (@scope IS NULL OR scope = @scope)
		ORDER BY id
		LIMIT 1`

	var scopeArg any
	if scope != nil {
		scopeArg = *scope
	}
	row := r.ex.QueryRowContext(ctx, q,
		sql.Named("subject_type", subjectType),
		sql.Named("slug", slug),
		sql.Named("scope", scopeArg),
	)
	result, err := scanSubject(row)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("sqlitestore.SubjectRepo.GetBySlug: %w", err)
	}
	return result, nil
}

func (r *subjectRepo) List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error) {
	const countQ = `SELECT count(*) FROM subjects WHERE subject_type = @subject_type`
	const q = `
		SELECT ` + subjectColumns + `
		FROM subjects
		WHERE subject_type = @subject_type
		ORDER BY id
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.ex.QueryRowContext(ctx, countQ, sql.Named("subject_type", subjectType)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlitestore.SubjectRepo.List: count: %w", err)
	}

	rows, err := r.ex.QueryContext(ctx, q,
		sql.Named("subject_type", subjectType),
		sql.Named("limit", p.Limit),
		sql.Named("offset", p.Offset()),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlitestore.SubjectRepo.List: %w", err)
	}
	defer rows.Close()

	subjects := []domain.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlitestore.SubjectRepo.List: scan: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlitestore.SubjectRepo.List: rows: %w", err)
	}
	return subjects, total, nil
}

func (r *subjectRepo) UpdateSlug(ctx context.Context, subjectType string, id int64, slug string) error {
	const q = `
		UPDATE subjects
		SET slug = @slug, updated_at = @now
		WHERE subject_type = @subject_type AND id = @id`

	res, err := r.ex.ExecContext(ctx, q,
		sql.Named("slug", slug),
		sql.Named("now", formatTime(r.now())),
		sql.Named("subject_type", subjectType),
		sql.Named("id", id),
	)
	if err != nil {
		return fmt.Errorf("sqlitestore.SubjectRepo.UpdateSlug: %w", mapWriteErr(err))
	}
	return requireAffected(res, "sqlitestore.SubjectRepo.UpdateSlug")
}

func (r *subjectRepo) Delete(ctx context.Context, subjectType string, id int64) error {
	const q = `DELETE FROM subjects WHERE subject_type = @subject_type AND id = @id`

	res, err := r.ex.ExecContext(ctx, q, sql.Named("subject_type", subjectType), sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("sqlitestore.SubjectRepo.Delete: %w", err)
	}
	return requireAffected(res, "sqlitestore.SubjectRepo.Delete")
}

func (r *subjectRepo) Conflicts(ctx context.Context, q repo.ConflictQuery) ([]string, error) {
	query, args, err := repo.BuildConflictQuery(repo.SQLite, "subjects", "id", q)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SubjectRepo.Conflicts: build: %w", err)
	}
	slugs, err := collectStrings(ctx, r.ex, query, args)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SubjectRepo.Conflicts: %w", err)
	}
	return slugs, nil
}

// requireAffected turns a zero-row write into domain.ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func collectStrings(ctx context.Context, ex execer, query string, args []any) ([]string, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(s rowScanner) (domain.Subject, error) {
	var (
		out                  domain.Subject
		slug                 sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&out.Type, &out.ID, &slug, &out.Scope, &out.Source, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subject{}, domain.ErrNotFound
		}
		return domain.Subject{}, err
	}
	out.Slug = slug.String
	if out.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Subject{}, fmt.Errorf("created_at: %w", err)
	}
	if out.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Subject{}, fmt.Errorf("updated_at: %w", err)
	}
	return out, nil
}
