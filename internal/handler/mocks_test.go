package handler_test

import (
	"context"
	"net/http"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/handler"
)

// ---- mock SubjectServicer --------------------------------------------------

type mockSubjectServicer struct {
	create  func(ctx context.Context, subjectType, scope string, candidates ...string) (domain.Subject, error)
	get     func(ctx context.Context, subjectType string, id int64) (domain.Subject, error)
	list    func(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error)
	history func(ctx context.Context, subjectType string, id int64) ([]domain.SlugRecord, error)
	delete  func(ctx context.Context, subjectType string, id int64) error
}

func (m *mockSubjectServicer) Create(ctx context.Context, subjectType, scope string, candidates ...string) (domain.Subject, error) {
	return m.create(ctx, subjectType, scope, candidates...)
}
func (m *mockSubjectServicer) Get(ctx context.Context, subjectType string, id int64) (domain.Subject, error) {
	return m.get(ctx, subjectType, id)
}
func (m *mockSubjectServicer) List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error) {
	return m.list(ctx, subjectType, p)
}
func (m *mockSubjectServicer) History(ctx context.Context, subjectType string, id int64) ([]domain.SlugRecord, error) {
	return m.history(ctx, subjectType, id)
}
func (m *mockSubjectServicer) Delete(ctx context.Context, subjectType string, id int64) error {
	return m.delete(ctx, subjectType, id)
}

// ---- mock SlugAssigner -----------------------------------------------------

type mockAssigner struct {
	assign func(ctx context.Context, subjectType string, id int64, candidates ...string) (domain.Subject, error)
}

func (m *mockAssigner) Assign(ctx context.Context, subjectType string, id int64, candidates ...string) (domain.Subject, error) {
	return m.assign(ctx, subjectType, id, candidates...)
}

// ---- mock Resolver ---------------------------------------------------------

type mockResolver struct {
	resolve func(ctx context.Context, subjectType string, scope *string, token string) (domain.Resolution, error)
}

func (m *mockResolver) Resolve(ctx context.Context, subjectType string, scope *string, token string) (domain.Resolution, error) {
	return m.resolve(ctx, subjectType, scope, token)
}

// ---- mock ExportServicer ---------------------------------------------------

type mockExportServicer struct {
	export func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

// compile-time checks
var (
	_ handler.SubjectServicer = (*mockSubjectServicer)(nil)
	_ handler.SlugAssigner    = (*mockAssigner)(nil)
	_ handler.Resolver        = (*mockResolver)(nil)
	_ handler.ExportServicer  = (*mockExportServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// deps bundles the mocks; unset fields stay nil and must not be reached.
type deps struct {
	subjects *mockSubjectServicer
	assigner *mockAssigner
	resolver *mockResolver
	export   *mockExportServicer
}

func newHTTPHandler(d deps) http.Handler {
	var (
		subjects handler.SubjectServicer
		assigner handler.SlugAssigner
		resolver handler.Resolver
		export   handler.ExportServicer
	)
	if d.subjects != nil {
		subjects = d.subjects
	}
	if d.assigner != nil {
		assigner = d.assigner
	}
	if d.resolver != nil {
		resolver = d.resolver
	}
	if d.export != nil {
		export = d.export
	}
	return handler.NewServer(subjects, assigner, resolver, export, nil).Handler()
}
