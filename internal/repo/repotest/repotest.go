// Package repotest is a behavioural test suite shared by every repo.Store
// implementation. Each backend runs it from its own tests with a factory
// that returns an empty, migrated store.
package repotest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
)

// NewStore returns an empty store isolated to t.
type NewStore func(t *testing.T) repo.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore NewStore) {
	t.Run("Subjects", func(t *testing.T) { runSubjects(t, newStore) })
	t.Run("Slugs", func(t *testing.T) { runSlugs(t, newStore) })
	t.Run("Conflicts", func(t *testing.T) { runConflicts(t, newStore) })
}

// createSubject inserts a subject and sets its current slug.
func createSubject(t *testing.T, s repo.Store, scope, slug string) domain.Subject {
	t.Helper()
	ctx := context.Background()
	got, err := s.Subjects().Create(ctx, domain.Subject{Type: "article", Scope: scope, Source: slug})
	require.NoError(t, err)
	if slug != "" {
		require.NoError(t, s.Subjects().UpdateSlug(ctx, "article", got.ID, slug))
		got.Slug = slug
	}
	return got
}

// inTx runs a single write in its own (nested) transaction so a failure
// does not poison the enclosing test transaction.
func inTx(ctx context.Context, s repo.Store, fn func(tx repo.Store) error) error {
	return s.InTx(ctx, fn)
}

func runSubjects(t *testing.T, newStore NewStore) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.Subjects().Create(ctx, domain.Subject{Type: "article", Source: "Apple"})
		require.NoError(t, err)
		assert.NotZero(t, created.ID, "id should be DB-generated")
		assert.Empty(t, created.Slug, "slug starts empty")
		assert.False(t, created.CreatedAt.IsZero())

		got, err := s.Subjects().GetByID(ctx, "article", created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Apple", got.Source)
	})

	t.Run("GetByID_WrongType", func(t *testing.T) {
		s := newStore(t)
		a := createSubject(t, s, "", "apple")

		_, err := s.Subjects().GetByID(context.Background(), "page", a.ID)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetBySlug", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "blog-a", "hello")
		b := createSubject(t, s, "blog-b", "hello")

		got, err := s.Subjects().GetBySlug(ctx, "article", nil, "hello")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID, "without a scope the oldest holder wins")

		scope := "blog-b"
		got, err = s.Subjects().GetBySlug(ctx, "article", &scope, "hello")
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)

		missing := "blog-c"
		_, err = s.Subjects().GetBySlug(ctx, "article", &missing, "hello")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UpdateSlug_Duplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		createSubject(t, s, "", "apple")
		b := createSubject(t, s, "", "")

		err := inTx(ctx, s, func(tx repo.Store) error {
			return tx.Subjects().UpdateSlug(ctx, "article", b.ID, "apple")
		})

		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UpdateSlug_OtherScopeIsFree", func(t *testing.T) {
		s := newStore(t)
		createSubject(t, s, "blog-a", "apple")
		b := createSubject(t, s, "blog-b", "")

		err := s.Subjects().UpdateSlug(context.Background(), "article", b.ID, "apple")

		assert.NoError(t, err)
	})

	t.Run("UpdateSlug_NotFound", func(t *testing.T) {
		s := newStore(t)

		err := s.Subjects().UpdateSlug(context.Background(), "article", 999999, "apple")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		s := newStore(t)
		for _, slug := range []string{"a", "b", "c"} {
			createSubject(t, s, "", slug)
		}

		got, total, err := s.Subjects().List(context.Background(), "article", domain.PaginationParams{Page: 2, Limit: 2})

		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 1)
		assert.Equal(t, "c", got[0].Slug)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "apple")

		require.NoError(t, s.Subjects().Delete(ctx, "article", a.ID))

		_, err := s.Subjects().GetByID(ctx, "article", a.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, s.Subjects().Delete(ctx, "article", a.ID), domain.ErrNotFound)
	})
}

func runSlugs(t *testing.T, newStore NewStore) {
	t.Run("RecordAndMostRecent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")

		_, err := s.Slugs().MostRecent(ctx, "article", a.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		inserted, err := s.Slugs().Record(ctx, a, "apple")
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = s.Slugs().Record(ctx, a, "pear")
		require.NoError(t, err)
		assert.True(t, inserted)

		rec, err := s.Slugs().MostRecent(ctx, "article", a.ID)
		require.NoError(t, err)
		assert.Equal(t, "pear", rec.Slug)
		assert.Equal(t, a.ID, rec.SubjectID)
		assert.NotEqual(t, [16]byte{}, [16]byte(rec.ID))
	})

	t.Run("Record_SameAsNewestIsNoop", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")

		_, err := s.Slugs().Record(ctx, a, "apple")
		require.NoError(t, err)
		inserted, err := s.Slugs().Record(ctx, a, "apple")

		require.NoError(t, err)
		assert.False(t, inserted)
		recs, err := s.Slugs().ListBySubject(ctx, "article", a.ID)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("Record_HeldByOther", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")
		b := createSubject(t, s, "", "")
		_, err := s.Slugs().Record(ctx, a, "apple")
		require.NoError(t, err)

		err = inTx(ctx, s, func(tx repo.Store) error {
			_, err := tx.Slugs().Record(ctx, b, "apple")
			return err
		})

		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("FindBySlug_IgnoresScope", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "blog-a", "")
		b := createSubject(t, s, "blog-b", "")
		_, err := s.Slugs().Record(ctx, a, "hello")
		require.NoError(t, err)
		_, err = s.Slugs().Record(ctx, b, "hello")
		require.NoError(t, err)

		ids, err := s.Slugs().FindBySlug(ctx, "article", "hello")

		require.NoError(t, err)
		assert.Equal(t, []int64{b.ID, a.ID}, ids, "newest first")
	})

	t.Run("LockAndDeleteOthers", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")
		b := createSubject(t, s, "", "")
		_, err := s.Slugs().Record(ctx, a, "apple")
		require.NoError(t, err)

		err = inTx(ctx, s, func(tx repo.Store) error {
			held, err := tx.Slugs().LockBySlug(ctx, "article", "", "apple")
			require.NoError(t, err)
			require.Len(t, held, 1)
			assert.Equal(t, a.ID, held[0].SubjectID)

			n, err := tx.Slugs().DeleteOthers(ctx, a, "apple")
			require.NoError(t, err)
			assert.Zero(t, n, "a subject never deletes its own rows")

			n, err = tx.Slugs().DeleteOthers(ctx, b, "apple")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			return nil
		})
		require.NoError(t, err)

		ids, err := s.Slugs().FindBySlug(ctx, "article", "apple")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Revive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")
		_, err := s.Slugs().Record(ctx, a, "apple")
		require.NoError(t, err)
		_, err = s.Slugs().Record(ctx, a, "pear")
		require.NoError(t, err)

		recs, err := s.Slugs().ListBySubject(ctx, "article", a.ID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "pear", recs[0].Slug)

		require.NoError(t, s.Slugs().Revive(ctx, recs[1].ID))

		rec, err := s.Slugs().MostRecent(ctx, "article", a.ID)
		require.NoError(t, err)
		assert.Equal(t, "apple", rec.Slug)
	})

	t.Run("DeleteBySubject", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")
		b := createSubject(t, s, "", "")
		for _, slug := range []string{"apple", "pear"} {
			_, err := s.Slugs().Record(ctx, a, slug)
			require.NoError(t, err)
		}
		_, err := s.Slugs().Record(ctx, b, "plum")
		require.NoError(t, err)

		n, err := s.Slugs().DeleteBySubject(ctx, "article", a.ID)

		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		recs, err := s.Slugs().ListBySubject(ctx, "article", b.ID)
		require.NoError(t, err)
		assert.Len(t, recs, 1)
	})

	t.Run("Export", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "pear")
		for _, slug := range []string{"apple", "pear"} {
			_, err := s.Slugs().Record(ctx, a, slug)
			require.NoError(t, err)
		}

		rows, err := s.Slugs().Export(ctx)

		require.NoError(t, err)
		var mine []domain.ExportRow
		for _, r := range rows {
			if r.SubjectID == a.ID && r.SubjectType == "article" {
				mine = append(mine, r)
			}
		}
		require.Len(t, mine, 2)
		assert.Equal(t, "pear", mine[0].Slug)
		assert.True(t, mine[0].Current())
		assert.False(t, mine[1].Current())
	})
}

func runConflicts(t *testing.T, newStore NewStore) {
	t.Run("SubjectsOrderedLongestFirst", func(t *testing.T) {
		s := newStore(t)
		for _, slug := range []string{"apple", "apple--9", "apple--10", "apple-pie", "apple--x"} {
			createSubject(t, s, "", slug)
		}

		got, err := s.Subjects().Conflicts(context.Background(), repo.ConflictQuery{
			SubjectType: "article",
			Candidate:   "apple",
			Separator:   "--",
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"apple--10", "apple--x", "apple--9", "apple"}, got)
	})

	t.Run("SubjectsExcludeSelfAndScope", func(t *testing.T) {
		s := newStore(t)
		a := createSubject(t, s, "blog-a", "apple")
		createSubject(t, s, "blog-a", "apple--2")
		createSubject(t, s, "blog-b", "apple--3")

		got, err := s.Subjects().Conflicts(context.Background(), repo.ConflictQuery{
			SubjectType: "article",
			Candidate:   "apple",
			Separator:   "--",
			Scoped:      true,
			Scope:       "blog-a",
			ExcludeID:   a.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"apple--2"}, got)
	})

	t.Run("LikeWildcardsAreLiteral", func(t *testing.T) {
		s := newStore(t)
		createSubject(t, s, "", "a_b--2")
		createSubject(t, s, "", "axb--3")

		got, err := s.Subjects().Conflicts(context.Background(), repo.ConflictQuery{
			SubjectType: "article",
			Candidate:   "a_b",
			Separator:   "--",
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a_b--2"}, got)
	})

	t.Run("Slugs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := createSubject(t, s, "", "")
		b := createSubject(t, s, "", "")
		_, err := s.Slugs().Record(ctx, a, "apple")
		require.NoError(t, err)
		_, err = s.Slugs().Record(ctx, b, "apple--2")
		require.NoError(t, err)

		got, err := s.Slugs().Conflicts(ctx, repo.ConflictQuery{
			SubjectType: "article",
			Candidate:   "apple",
			Separator:   "--",
			ExcludeID:   b.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"apple"}, got)
	})
}
