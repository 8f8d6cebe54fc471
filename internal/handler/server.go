// Package handler implements the HTTP handlers for the slugkeeper API.
// All handlers are methods on Server. Methods are split into
// domain-specific files (health.go, subject.go, etc.) but all share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// SubjectServicer defines the subject lifecycle operations the handlers
// depend on. Defining the interface here, in the consumer package, lets
// handler tests inject a mock without touching the database.
type SubjectServicer interface {
	Create(ctx context.Context, subjectType, scope string, candidates ...string) (domain.Subject, error)
	Get(ctx context.Context, subjectType string, id int64) (domain.Subject, error)
	List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error)
	History(ctx context.Context, subjectType string, id int64) ([]domain.SlugRecord, error)
	Delete(ctx context.Context, subjectType string, id int64) error
}

// SlugAssigner assigns a new slug to an existing subject.
type SlugAssigner interface {
	Assign(ctx context.Context, subjectType string, id int64, candidates ...string) (domain.Subject, error)
}

// Resolver maps a lookup token to a subject.
type Resolver interface {
	Resolve(ctx context.Context, subjectType string, scope *string, token string) (domain.Resolution, error)
}

// ExportServicer defines the export operation the handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the handler dependencies.
// Wire it in main.go via Server.Handler.
type Server struct {
	subjects SubjectServicer
	assigner SlugAssigner
	resolver Resolver
	export   ExportServicer
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default.
func NewServer(subjects SubjectServicer, assigner SlugAssigner, resolver Resolver, export ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		subjects: subjects,
		assigner: assigner,
		resolver: resolver,
		export:   export,
		log:      log,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// Handler returns a chi router serving every API route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/subjects/{type}", func(r chi.Router) {
		r.Post("/", s.CreateSubject)
		r.Get("/", s.ListSubjects)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSubject)
			r.Delete("/", s.DeleteSubject)
			r.Put("/slug", s.AssignSlug)
			r.Get("/history", s.GetHistory)
		})
	})

	r.Get("/resolve/{type}/{token}", s.Resolve)
	r.Get("/export", s.GetExport)
	return r
}
