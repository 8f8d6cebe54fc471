package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
)

type slugRepo struct {
	ex  execer
	now func() time.Time
}

const slugRecordColumns = `id, subject_type, subject_id, scope, slug, created_at`

// nextSeq is evaluated inside the writing statement; writers are serialized
// by the immediate transaction so MAX+1 cannot race.
const nextSeq = `COALESCE((SELECT MAX(seq) FROM slug_records), 0) + 1`

func (r *slugRepo) Record(ctx context.Context, s domain.Subject, slug string) (bool, error) {
	const q = `
		INSERT INTO slug_records (id, subject_type, subject_id, scope, slug, created_at, seq)
		SELECT @id, @subject_type, @subject_id, @scope, @slug, @now, ` + nextSeq + `
		WHERE NOT EXISTS (
			SELECT 1 FROM (
				SELECT slug FROM slug_records
				WHERE subject_type = @subject_type AND subject_id = @subject_id
				ORDER BY created_at DESC, seq DESC
				LIMIT 1
			) newest
			WHERE newest.slug = @slug
		)`

	res, err := r.ex.ExecContext(ctx, q,
		sql.Named("id", uuid.NewString()),
		sql.Named("subject_type", s.Type),
		sql.Named("subject_id", s.ID),
		sql.Named("scope", s.Scope),
		sql.Named("slug", slug),
		sql.Named("now", formatTime(r.now())),
	)
	if err != nil {
		return false, fmt.Errorf("sqlitestore.SlugRepo.Record: %w", mapWriteErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlitestore.SlugRepo.Record: rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *slugRepo) MostRecent(ctx context.Context, subjectType string, subjectID int64) (domain.SlugRecord, error) {
	const q = `
		SELECT ` + slugRecordColumns + `
		FROM slug_records
		WHERE subject_type = @subject_type AND subject_id = @subject_id
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`

	row := r.ex.QueryRowContext(ctx, q, sql.Named("subject_type", subjectType), sql.Named("subject_id", subjectID))
	rec, err := scanSlugRecord(row)
	if err != nil {
		return domain.SlugRecord{}, fmt.Errorf("sqlitestore.SlugRepo.MostRecent: %w", err)
	}
	return rec, nil
}

func (r *slugRepo) FindBySlug(ctx context.Context, subjectType, slug string) ([]int64, error) {
	const q = `
		SELECT subject_id
		FROM slug_records
		WHERE subject_type = @subject_type AND slug = @slug
		ORDER BY created_at DESC, seq DESC`

	rows, err := r.ex.QueryContext(ctx, q, sql.Named("subject_type", subjectType), sql.Named("slug", slug))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.FindBySlug: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlitestore.SlugRepo.FindBySlug: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.FindBySlug: rows: %w", err)
	}
	return ids, nil
}

// LockBySlug reads the matching rows. The write lock taken by the
// immediate transaction already excludes every other writer.
func (r *slugRepo) LockBySlug(ctx context.Context, subjectType, scope, slug string) ([]domain.SlugRecord, error) {
	const q = `
		SELECT ` + slugRecordColumns + `
		FROM slug_records
		WHERE subject_type = @subject_type AND scope = @scope AND slug = @slug`

	recs, err := r.queryRecords(ctx, q,
		sql.Named("subject_type", subjectType),
		sql.Named("scope", scope),
		sql.Named("slug", slug),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.LockBySlug: %w", err)
	}
	return recs, nil
}

func (r *slugRepo) DeleteOthers(ctx context.Context, s domain.Subject, slug string) (int64, error) {
	const q = `
		DELETE FROM slug_records
		WHERE subject_type = @subject_type
		  AND scope = @scope
		  AND slug = @slug
		  AND subject_id <> @subject_id`

	res, err := r.ex.ExecContext(ctx, q,
		sql.Named("subject_type", s.Type),
		sql.Named("scope", s.Scope),
		sql.Named("slug", slug),
		sql.Named("subject_id", s.ID),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore.SlugRepo.DeleteOthers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlitestore.SlugRepo.DeleteOthers: rows affected: %w", err)
	}
	return n, nil
}

func (r *slugRepo) Revive(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE slug_records
		SET created_at = @now, seq = ` + nextSeq + `
		WHERE id = @id`

	res, err := r.ex.ExecContext(ctx, q, sql.Named("now", formatTime(r.now())), sql.Named("id", id.String()))
	if err != nil {
		return fmt.Errorf("sqlitestore.SlugRepo.Revive: %w", err)
	}
	return requireAffected(res, "sqlitestore.SlugRepo.Revive")
}

func (r *slugRepo) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]domain.SlugRecord, error) {
	const q = `
		SELECT ` + slugRecordColumns + `
		FROM slug_records
		WHERE subject_type = @subject_type AND subject_id = @subject_id
		ORDER BY created_at DESC, seq DESC`

	recs, err := r.queryRecords(ctx, q, sql.Named("subject_type", subjectType), sql.Named("subject_id", subjectID))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.ListBySubject: %w", err)
	}
	return recs, nil
}

func (r *slugRepo) DeleteBySubject(ctx context.Context, subjectType string, subjectID int64) (int64, error) {
	const q = `DELETE FROM slug_records WHERE subject_type = @subject_type AND subject_id = @subject_id`

	res, err := r.ex.ExecContext(ctx, q, sql.Named("subject_type", subjectType), sql.Named("subject_id", subjectID))
	if err != nil {
		return 0, fmt.Errorf("sqlitestore.SlugRepo.DeleteBySubject: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlitestore.SlugRepo.DeleteBySubject: rows affected: %w", err)
	}
	return n, nil
}

func (r *slugRepo) Conflicts(ctx context.Context, q repo.ConflictQuery) ([]string, error) {
	query, args, err := repo.BuildConflictQuery(repo.SQLite, "slug_records", "subject_id", q)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.Conflicts: build: %w", err)
	}
	slugs, err := collectStrings(ctx, r.ex, query, args)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.Conflicts: %w", err)
	}
	return slugs, nil
}

func (r *slugRepo) Export(ctx context.Context) ([]domain.ExportRow, error) {
	const q = `
		SELECT r.subject_type, r.subject_id, r.scope, r.slug, COALESCE(s.slug, ''), r.created_at
		FROM slug_records r
		LEFT JOIN subjects s ON s.subject_type = r.subject_type AND s.id = r.subject_id
		ORDER BY r.subject_type, r.subject_id, r.created_at DESC, r.seq DESC`

	rows, err := r.ex.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.Export: %w", err)
	}
	defer rows.Close()

	out := []domain.ExportRow{}
	for rows.Next() {
		var (
			e         domain.ExportRow
			createdAt string
		)
		if err := rows.Scan(&e.SubjectType, &e.SubjectID, &e.Scope, &e.Slug, &e.CurrentSlug, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlitestore.SlugRepo.Export: scan: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqlitestore.SlugRepo.Export: created_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore.SlugRepo.Export: rows: %w", err)
	}
	return out, nil
}

func (r *slugRepo) queryRecords(ctx context.Context, q string, args ...any) ([]domain.SlugRecord, error) {
	rows, err := r.ex.QueryContext(ctx, q, args...)
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

func scanSlugRecord(s rowScanner) (domain.SlugRecord, error) {
	var (
		rec           domain.SlugRecord
		id, createdAt string
	)
	err := s.Scan(&id, &rec.SubjectType, &rec.SubjectID, &rec.Scope, &rec.Slug, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SlugRecord{}, domain.ErrNotFound
		}
		return domain.SlugRecord{}, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return domain.SlugRecord{}, fmt.Errorf("id: %w", err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.SlugRecord{}, fmt.Errorf("created_at: %w", err)
	}
	return rec, nil
}
