package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
	"github.com/pkordes/slugkeeper/internal/service"
)

// ---- mock Store ------------------------------------------------------------

// mockStore hands out the same mock repos inside and outside transactions.
// txCalls counts InTx invocations so tests can assert retry behaviour.
type mockStore struct {
	subjects *mockSubjectRepo
	slugs    *mockSlugRepo
	txCalls  int
}

func newMockStore() *mockStore {
	return &mockStore{subjects: &mockSubjectRepo{}, slugs: &mockSlugRepo{}}
}

func (m *mockStore) Subjects() repo.SubjectRepo { return m.subjects }
func (m *mockStore) Slugs() repo.SlugRepo       { return m.slugs }
func (m *mockStore) InTx(_ context.Context, fn func(tx repo.Store) error) error {
	m.txCalls++
	return fn(m)
}

// compile-time check
var _ repo.Store = (*mockStore)(nil)

// ---- mock SubjectRepo ------------------------------------------------------

// Methods whose func field is nil return a zero value, except lookups,
// which return domain.ErrNotFound.
type mockSubjectRepo struct {
	create     func(ctx context.Context, s domain.Subject) (domain.Subject, error)
	getByID    func(ctx context.Context, subjectType string, id int64) (domain.Subject, error)
	getBySlug  func(ctx context.Context, subjectType string, scope *string, slug string) (domain.Subject, error)
	list       func(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error)
	updateSlug func(ctx context.Context, subjectType string, id int64, slug string) error
	delete     func(ctx context.Context, subjectType string, id int64) error
	conflicts  func(ctx context.Context, q repo.ConflictQuery) ([]string, error)
}

func (m *mockSubjectRepo) Create(ctx context.Context, s domain.Subject) (domain.Subject, error) {
	return m.create(ctx, s)
}
func (m *mockSubjectRepo) GetByID(ctx context.Context, subjectType string, id int64) (domain.Subject, error) {
	if m.getByID == nil {
		return domain.Subject{}, domain.ErrNotFound
	}
	return m.getByID(ctx, subjectType, id)
}
func (m *mockSubjectRepo) GetBySlug(ctx context.Context, subjectType string, scope *string, slug string) (domain.Subject, error) {
	if m.getBySlug == nil {
		return domain.Subject{}, domain.ErrNotFound
	}
	return m.getBySlug(ctx, subjectType, scope, slug)
}
func (m *mockSubjectRepo) List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error) {
	return m.list(ctx, subjectType, p)
}
func (m *mockSubjectRepo) UpdateSlug(ctx context.Context, subjectType string, id int64, slug string) error {
	if m.updateSlug == nil {
		return nil
	}
	return m.updateSlug(ctx, subjectType, id, slug)
}
func (m *mockSubjectRepo) Delete(ctx context.Context, subjectType string, id int64) error {
	return m.delete(ctx, subjectType, id)
}
func (m *mockSubjectRepo) Conflicts(ctx context.Context, q repo.ConflictQuery) ([]string, error) {
	if m.conflicts == nil {
		return nil, nil
	}
	return m.conflicts(ctx, q)
}

// ---- mock SlugRepo ---------------------------------------------------------

type mockSlugRepo struct {
	record          func(ctx context.Context, s domain.Subject, slug string) (bool, error)
	mostRecent      func(ctx context.Context, subjectType string, subjectID int64) (domain.SlugRecord, error)
	findBySlug      func(ctx context.Context, subjectType, slug string) ([]int64, error)
	lockBySlug      func(ctx context.Context, subjectType, scope, slug string) ([]domain.SlugRecord, error)
	deleteOthers    func(ctx context.Context, s domain.Subject, slug string) (int64, error)
	revive          func(ctx context.Context, id uuid.UUID) error
	listBySubject   func(ctx context.Context, subjectType string, subjectID int64) ([]domain.SlugRecord, error)
	deleteBySubject func(ctx context.Context, subjectType string, subjectID int64) (int64, error)
	conflicts       func(ctx context.Context, q repo.ConflictQuery) ([]string, error)
	export          func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockSlugRepo) Record(ctx context.Context, s domain.Subject, slug string) (bool, error) {
	if m.record == nil {
		return true, nil
	}
	return m.record(ctx, s, slug)
}
func (m *mockSlugRepo) MostRecent(ctx context.Context, subjectType string, subjectID int64) (domain.SlugRecord, error) {
	if m.mostRecent == nil {
		return domain.SlugRecord{}, domain.ErrNotFound
	}
	return m.mostRecent(ctx, subjectType, subjectID)
}
func (m *mockSlugRepo) FindBySlug(ctx context.Context, subjectType, slug string) ([]int64, error) {
	if m.findBySlug == nil {
		return nil, nil
	}
	return m.findBySlug(ctx, subjectType, slug)
}
func (m *mockSlugRepo) LockBySlug(ctx context.Context, subjectType, scope, slug string) ([]domain.SlugRecord, error) {
	if m.lockBySlug == nil {
		return nil, nil
	}
	return m.lockBySlug(ctx, subjectType, scope, slug)
}
func (m *mockSlugRepo) DeleteOthers(ctx context.Context, s domain.Subject, slug string) (int64, error) {
	return m.deleteOthers(ctx, s, slug)
}
func (m *mockSlugRepo) Revive(ctx context.Context, id uuid.UUID) error {
	return m.revive(ctx, id)
}
func (m *mockSlugRepo) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]domain.SlugRecord, error) {
	return m.listBySubject(ctx, subjectType, subjectID)
}
func (m *mockSlugRepo) DeleteBySubject(ctx context.Context, subjectType string, subjectID int64) (int64, error) {
	return m.deleteBySubject(ctx, subjectType, subjectID)
}
func (m *mockSlugRepo) Conflicts(ctx context.Context, q repo.ConflictQuery) ([]string, error) {
	if m.conflicts == nil {
		return nil, nil
	}
	return m.conflicts(ctx, q)
}
func (m *mockSlugRepo) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

// compile-time checks
var (
	_ repo.SubjectRepo = (*mockSubjectRepo)(nil)
	_ repo.SlugRepo    = (*mockSlugRepo)(nil)
)

// ---- fixtures --------------------------------------------------------------

func articleType() domain.TypeConfig {
	return domain.TypeConfig{Name: "article", History: true, Separator: "--", ReclaimRetired: true}
}

func testOptions(types ...domain.TypeConfig) service.Options {
	if len(types) == 0 {
		types = []domain.TypeConfig{articleType()}
	}
	return service.Options{Registry: domain.NewRegistry(types...)}
}
