package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
	"github.com/pkordes/slugkeeper/internal/service"
)

// storeWithSubject returns a mock store holding one persisted article.
func storeWithSubject(s domain.Subject) *mockStore {
	store := newMockStore()
	store.subjects.getByID = func(_ context.Context, _ string, id int64) (domain.Subject, error) {
		if id != s.ID {
			return domain.Subject{}, domain.ErrNotFound
		}
		return s, nil
	}
	return store
}

func TestSlugAssigner_Assign_RecordsNewSlug(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1})
	var recorded, updated string
	store.slugs.record = func(_ context.Context, _ domain.Subject, slug string) (bool, error) {
		recorded = slug
		return true, nil
	}
	store.subjects.updateSlug = func(_ context.Context, _ string, _ int64, slug string) error {
		updated = slug
		return nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 1, "Apple Pie")

	require.NoError(t, err)
	assert.Equal(t, "apple-pie", got.Slug)
	assert.Equal(t, "apple-pie", recorded)
	assert.Equal(t, "apple-pie", updated)
}

func TestSlugAssigner_Assign_BlankCandidateIsNoop(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1, Slug: "keep-me"})
	store.subjects.updateSlug = func(context.Context, string, int64, string) error {
		t.Fatal("blank candidate must not write")
		return nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 1, "  !!! ", "")

	require.NoError(t, err)
	assert.Equal(t, "keep-me", got.Slug)
}

func TestSlugAssigner_Assign_SameSlugIsNoop(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1, Slug: "apple"})
	store.slugs.mostRecent = func(context.Context, string, int64) (domain.SlugRecord, error) {
		return domain.SlugRecord{Slug: "apple"}, nil
	}
	store.slugs.record = func(context.Context, domain.Subject, string) (bool, error) {
		t.Fatal("idempotent re-save must not record")
		return false, nil
	}
	store.subjects.updateSlug = func(context.Context, string, int64, string) error {
		t.Fatal("idempotent re-save must not update")
		return nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 1, "Apple")

	require.NoError(t, err)
	assert.Equal(t, "apple", got.Slug)
}

func TestSlugAssigner_Assign_SequencedVariantIsNoop(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 2, Slug: "apple--2"})
	store.slugs.mostRecent = func(context.Context, string, int64) (domain.SlugRecord, error) {
		return domain.SlugRecord{Slug: "apple--2"}, nil
	}
	store.subjects.conflicts = func(context.Context, repo.ConflictQuery) ([]string, error) {
		t.Fatal("a subject already holding a variant must not be re-resolved")
		return nil, nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 2, "apple")

	require.NoError(t, err)
	assert.Equal(t, "apple--2", got.Slug)
}

func TestSlugAssigner_Assign_ReclaimsRetiredSlug(t *testing.T) {
	subject := domain.Subject{Type: "article", ID: 2, Slug: "pear"}
	store := storeWithSubject(subject)
	store.slugs.lockBySlug = func(_ context.Context, subjectType, scope, slug string) ([]domain.SlugRecord, error) {
		assert.Equal(t, "article", subjectType)
		assert.Equal(t, "", scope)
		assert.Equal(t, "apple", slug)
		return []domain.SlugRecord{{ID: uuid.New(), SubjectType: "article", SubjectID: 1, Slug: "apple"}}, nil
	}
	var deleted bool
	store.slugs.deleteOthers = func(_ context.Context, s domain.Subject, slug string) (int64, error) {
		deleted = true
		assert.Equal(t, int64(2), s.ID)
		assert.Equal(t, "apple", slug)
		return 1, nil
	}
	var recorded bool
	store.slugs.record = func(context.Context, domain.Subject, string) (bool, error) {
		recorded = true
		return true, nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 2, "apple")

	require.NoError(t, err)
	assert.Equal(t, "apple", got.Slug)
	assert.True(t, deleted, "other subject's retired row must be deleted")
	assert.True(t, recorded, "a new row must be recorded for the reclaiming subject")
}

func TestSlugAssigner_Assign_RevivesOwnRow(t *testing.T) {
	own := domain.SlugRecord{ID: uuid.New(), SubjectType: "article", SubjectID: 1, Slug: "apple"}
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1, Slug: "pear"})
	store.slugs.mostRecent = func(context.Context, string, int64) (domain.SlugRecord, error) {
		return domain.SlugRecord{Slug: "pear"}, nil
	}
	store.slugs.lockBySlug = func(context.Context, string, string, string) ([]domain.SlugRecord, error) {
		return []domain.SlugRecord{own}, nil
	}
	var revived uuid.UUID
	store.slugs.revive = func(_ context.Context, id uuid.UUID) error {
		revived = id
		return nil
	}
	store.slugs.record = func(context.Context, domain.Subject, string) (bool, error) {
		t.Fatal("reverting to an own slug must revive, not insert")
		return false, nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 1, "apple")

	require.NoError(t, err)
	assert.Equal(t, "apple", got.Slug)
	assert.Equal(t, own.ID, revived)
}

func TestSlugAssigner_Assign_RetiredSlugWithoutReclaimConflicts(t *testing.T) {
	cfg := articleType()
	cfg.ReclaimRetired = false
	store := storeWithSubject(domain.Subject{Type: "article", ID: 2})
	store.slugs.lockBySlug = func(context.Context, string, string, string) ([]domain.SlugRecord, error) {
		return []domain.SlugRecord{{SubjectID: 1, Slug: "apple"}}, nil
	}

	_, err := service.NewSlugAssigner(store, testOptions(cfg)).Assign(context.Background(), "article", 2, "apple")

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, service.DefaultMaxAttempts, store.txCalls, "every attempt must run in a fresh transaction")
}

func TestSlugAssigner_Assign_RetriesAfterConflict(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 3})
	holders := []string{}
	store.subjects.conflicts = func(context.Context, repo.ConflictQuery) ([]string, error) {
		return holders, nil
	}
	store.subjects.updateSlug = func(_ context.Context, _ string, _ int64, slug string) error {
		if slug == "apple" {
			// A concurrent writer took "apple" between resolve and write.
			holders = []string{"apple"}
			return fmt.Errorf("unique: %w", domain.ErrConflict)
		}
		return nil
	}

	got, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 3, "apple")

	require.NoError(t, err)
	assert.Equal(t, "apple--2", got.Slug)
	assert.Equal(t, 2, store.txCalls)
}

func TestSlugAssigner_Assign_StorageErrorIsNotRetried(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1})
	store.subjects.updateSlug = func(context.Context, string, int64, string) error {
		return errors.New("connection reset")
	}

	_, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 1, "apple")

	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 1, store.txCalls)
}

func TestSlugAssigner_Assign_ReservedCandidate(t *testing.T) {
	cfg := articleType()
	cfg.Reserved = []string{"new"}
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1})

	_, err := service.NewSlugAssigner(store, testOptions(cfg)).Assign(context.Background(), "article", 1, "New")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlugAssigner_Assign_ReservedCandidateSkippedForNext(t *testing.T) {
	cfg := articleType()
	cfg.Reserved = []string{"new"}
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1})

	got, err := service.NewSlugAssigner(store, testOptions(cfg)).Assign(context.Background(), "article", 1, "New", "New Arrivals")

	require.NoError(t, err)
	assert.Equal(t, "new-arrivals", got.Slug)
}

func TestSlugAssigner_Assign_WithoutHistorySkipsStore(t *testing.T) {
	cfg := domain.TypeConfig{Name: "page"}
	store := newMockStore()
	store.subjects.getByID = func(context.Context, string, int64) (domain.Subject, error) {
		return domain.Subject{Type: "page", ID: 1, Slug: "old"}, nil
	}
	store.slugs.mostRecent = func(context.Context, string, int64) (domain.SlugRecord, error) {
		t.Fatal("types without history must not read the identifier store")
		return domain.SlugRecord{}, nil
	}
	store.slugs.record = func(context.Context, domain.Subject, string) (bool, error) {
		t.Fatal("types without history must not write the identifier store")
		return false, nil
	}

	got, err := service.NewSlugAssigner(store, testOptions(cfg)).Assign(context.Background(), "page", 1, "New Title")

	require.NoError(t, err)
	assert.Equal(t, "new-title", got.Slug)
}

func TestSlugAssigner_Assign_UnknownType(t *testing.T) {
	_, err := service.NewSlugAssigner(newMockStore(), testOptions()).Assign(context.Background(), "widget", 1, "x")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSlugAssigner_Assign_UnknownSubject(t *testing.T) {
	store := storeWithSubject(domain.Subject{Type: "article", ID: 1})

	_, err := service.NewSlugAssigner(store, testOptions()).Assign(context.Background(), "article", 99, "x")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSlugAssigner_Candidates_NormalizesAndDedups(t *testing.T) {
	a := service.NewSlugAssigner(newMockStore(), testOptions())

	got, err := a.Candidates(articleType(), []string{"Apple Pie", "apple pie!", "", "Crème"})

	require.NoError(t, err)
	assert.Equal(t, []string{"apple-pie", "creme"}, got)
}
