package service

import "github.com/pkordes/slugkeeper/internal/repo"

// Services bundles every service built over one store with shared options.
type Services struct {
	Subjects *SubjectService
	Assigner *SlugAssigner
	Resolver *ResolverChain
	Export   *ExportService
}

// NewServices wires the services over store.
func NewServices(store repo.Store, opts Options) Services {
	assigner := NewSlugAssigner(store, opts)
	return Services{
		Subjects: NewSubjectService(store, assigner, opts),
		Assigner: assigner,
		Resolver: NewResolverChain(store, opts),
		Export:   NewExportService(store.Slugs()),
	}
}
