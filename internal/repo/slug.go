package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// pgSlugRepo is the Postgres implementation of SlugRepo.
type pgSlugRepo struct {
	db db
}

const slugRecordColumns = `id, subject_type, subject_id, scope, slug, created_at`

// Record inserts a slug row unless it would repeat the subject's newest row.
// The insert and the newest-row check are one statement so a concurrent
// Record on the same subject cannot sneak a duplicate in between.
func (r *pgSlugRepo) Record(ctx context.Context, s domain.Subject, slug string) (bool, error) {
	const q = `
		INSERT INTO slug_records (subject_type, subject_id, scope, slug)
		SELECT @subject_type::text, @subject_id::bigint, @scope::text, @slug::text
		WHERE NOT EXISTS (
			SELECT 1 FROM (
				SELECT slug FROM slug_records
				WHERE subject_type = @subject_type AND subject_id = @subject_id
				ORDER BY created_at DESC, seq DESC
				LIMIT 1
			) newest
			WHERE newest.slug = @slug
		)`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"subject_type": s.Type,
		"subject_id":   s.ID,
		"scope":        s.Scope,
		"slug":         slug,
	})
	if err != nil {
		return false, fmt.Errorf("repo.SlugRepo.Record: %w", mapWriteErr(err))
	}
	return tag.RowsAffected() == 1, nil
}

// MostRecent returns the newest row of a subject.
func (r *pgSlugRepo) MostRecent(ctx context.Context, subjectType string, subjectID int64) (domain.SlugRecord, error) {
	const q = `
		SELECT ` + slugRecordColumns + `
		FROM slug_records
		WHERE subject_type = @subject_type AND subject_id = @subject_id
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "subject_id": subjectID})
	rec, err := scanSlugRecord(row)
	if err != nil {
		return domain.SlugRecord{}, fmt.Errorf("repo.SlugRepo.MostRecent: %w", err)
	}
	return rec, nil
}

// FindBySlug returns the subject ids holding slug in any scope, newest first.
func (r *pgSlugRepo) FindBySlug(ctx context.Context, subjectType, slug string) ([]int64, error) {
	const q = `
		SELECT subject_id
		FROM slug_records
		WHERE subject_type = @subject_type AND slug = @slug
		ORDER BY created_at DESC, seq DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "slug": slug})
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.FindBySlug: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.FindBySlug: rows: %w", err)
	}
	return ids, nil
}

// LockBySlug reads the rows for (type, scope, slug) FOR UPDATE.
func (r *pgSlugRepo) LockBySlug(ctx context.Context, subjectType, scope, slug string) ([]domain.SlugRecord, error) {
	const q = `
		SELECT ` + slugRecordColumns + `
		FROM slug_records
		WHERE subject_type = @subject_type AND scope = @scope AND slug = @slug
		FOR UPDATE`

	recs, err := r.queryRecords(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "scope": scope, "slug": slug})
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.LockBySlug: %w", err)
	}
	return recs, nil
}

// DeleteOthers removes rows holding slug that belong to other subjects.
func (r *pgSlugRepo) DeleteOthers(ctx context.Context, s domain.Subject, slug string) (int64, error) {
	const q = `
		DELETE FROM slug_records
		WHERE subject_type = @subject_type
		  AND scope = @scope
		  AND slug = @slug
		  AND subject_id <> @subject_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"subject_type": s.Type,
		"scope":        s.Scope,
		"slug":         slug,
		"subject_id":   s.ID,
	})
	if err != nil {
		return 0, fmt.Errorf("repo.SlugRepo.DeleteOthers: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Revive moves a row to the head of its subject's history.
func (r *pgSlugRepo) Revive(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE slug_records
		SET created_at = now(),
		    seq = nextval(pg_get_serial_sequence('slug_records', 'seq'))
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.SlugRepo.Revive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SlugRepo.Revive: %w", domain.ErrNotFound)
	}
	return nil
}

// ListBySubject returns a subject's full history, newest first.
func (r *pgSlugRepo) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]domain.SlugRecord, error) {
	const q = `
		SELECT ` + slugRecordColumns + `
		FROM slug_records
		WHERE subject_type = @subject_type AND subject_id = @subject_id
		ORDER BY created_at DESC, seq DESC`

	recs, err := r.queryRecords(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "subject_id": subjectID})
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.ListBySubject: %w", err)
	}
	return recs, nil
}

// DeleteBySubject removes a subject's full history.
func (r *pgSlugRepo) DeleteBySubject(ctx context.Context, subjectType string, subjectID int64) (int64, error) {
	const q = `DELETE FROM slug_records WHERE subject_type = @subject_type AND subject_id = @subject_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"subject_type": subjectType, "subject_id": subjectID})
	if err != nil {
		return 0, fmt.Errorf("repo.SlugRepo.DeleteBySubject: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Conflicts returns recorded slugs of other subjects that collide with q.Candidate.
func (r *pgSlugRepo) Conflicts(ctx context.Context, q ConflictQuery) ([]string, error) {
	sql, args, err := BuildConflictQuery(Postgres, "slug_records", "subject_id", q)
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.Conflicts: build: %w", err)
	}
	slugs, err := collectSlugs(ctx, r.db, sql, args)
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.Conflicts: %w", err)
	}
	return slugs, nil
}

// Export returns every slug row with its subject's current slug.
func (r *pgSlugRepo) Export(ctx context.Context) ([]domain.ExportRow, error) {
	const q = `
		SELECT r.subject_type, r.subject_id, r.scope, r.slug, COALESCE(s.slug, ''), r.created_at
		FROM slug_records r
		LEFT JOIN subjects s ON s.subject_type = r.subject_type AND s.id = r.subject_id
		ORDER BY r.subject_type, r.subject_id, r.created_at DESC, r.seq DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.Export: %w", err)
	}
	defer rows.Close()

	out := []domain.ExportRow{}
	for rows.Next() {
		var e domain.ExportRow
		if err := rows.Scan(&e.SubjectType, &e.SubjectID, &e.Scope, &e.Slug, &e.CurrentSlug, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo.SlugRepo.Export: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SlugRepo.Export: rows: %w", err)
	}
	return out, nil
}

func (r *pgSlugRepo) queryRecords(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.SlugRecord, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []domain.SlugRecord{}
	for rows.Next() {
		rec, err := scanSlugRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return recs, nil
}

// scanSlugRecord maps a single database row into a domain.SlugRecord.
func scanSlugRecord(s scanner) (domain.SlugRecord, error) {
	var (
		rec domain.SlugRecord
		id  pgtype.UUID
	)
	err := s.Scan(&id, &rec.SubjectType, &rec.SubjectID, &rec.Scope, &rec.Slug, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SlugRecord{}, domain.ErrNotFound
		}
		return domain.SlugRecord{}, err
	}
	rec.ID = uuid.UUID(id.Bytes)
	return rec, nil
}
