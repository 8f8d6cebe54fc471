package service

import (
	"context"
	"fmt"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
)

// SubjectService implements the subject lifecycle around slug assignment:
// creating a subject together with its first slug, listing, history, and
// deleting a subject together with every slug it ever held.
type SubjectService struct {
	store    repo.Store
	assigner *SlugAssigner
	opts     Options
}

// NewSubjectService constructs a SubjectService over store. The assigner
// must share the same store.
func NewSubjectService(store repo.Store, assigner *SlugAssigner, opts Options) *SubjectService {
	return &SubjectService{store: store, assigner: assigner, opts: opts.withDefaults()}
}

// Create inserts a subject of subjectType and assigns its slug from
// candidates in the same transaction, so a failed assignment leaves no
// subject behind. Blank candidates create a subject without a slug.
// Returns domain.ErrValidation if scope is set on an unscoped type.
func (s *SubjectService) Create(ctx context.Context, subjectType, scope string, candidates ...string) (domain.Subject, error) {
	cfg, err := s.opts.Registry.Lookup(subjectType)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("service.SubjectService.Create: %w", err)
	}
	if !cfg.Scoped && scope != "" {
		return domain.Subject{}, fmt.Errorf("service.SubjectService.Create: %w: type %q is not scoped", domain.ErrValidation, cfg.Name)
	}
	var source string
	if len(candidates) > 0 {
		source = candidates[0]
	}

	var out domain.Subject
	err = s.assigner.retry(ctx, cfg.Name, func() error {
		return s.store.InTx(ctx, func(tx repo.Store) error {
			subject, err := tx.Subjects().Create(ctx, domain.Subject{Type: cfg.Name, Scope: scope, Source: source})
			if err != nil {
				return err
			}
			out, err = s.assigner.AssignTx(ctx, tx, cfg, subject, candidates)
			return err
		})
	})
	if err != nil {
		return domain.Subject{}, fmt.Errorf("service.SubjectService.Create: %w", err)
	}
	s.opts.Cache.Purge()
	return out, nil
}

// Get returns a subject by type and primary key.
func (s *SubjectService) Get(ctx context.Context, subjectType string, id int64) (domain.Subject, error) {
	cfg, err := s.opts.Registry.Lookup(subjectType)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("service.SubjectService.Get: %w", err)
	}
	subject, err := s.store.Subjects().GetByID(ctx, cfg.Name, id)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("service.SubjectService.Get: %w", err)
	}
	return subject, nil
}

// List returns one page of subjects of a type and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *SubjectService) List(ctx context.Context, subjectType string, p domain.PaginationParams) ([]domain.Subject, int64, error) {
	cfg, err := s.opts.Registry.Lookup(subjectType)
	if err != nil {
		return nil, 0, fmt.Errorf("service.SubjectService.List: %w", err)
	}
	subjects, total, err := s.store.Subjects().List(ctx, cfg.Name, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.SubjectService.List: %w", err)
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}
	return subjects, total, nil
}

// History returns every slug the subject has held, newest first.
// Types without history yield an empty slice.
func (s *SubjectService) History(ctx context.Context, subjectType string, id int64) ([]domain.SlugRecord, error) {
	cfg, err := s.opts.Registry.Lookup(subjectType)
	if err != nil {
		return nil, fmt.Errorf("service.SubjectService.History: %w", err)
	}
	if _, err := s.store.Subjects().GetByID(ctx, cfg.Name, id); err != nil {
		return nil, fmt.Errorf("service.SubjectService.History: %w", err)
	}
	if !cfg.History {
		return []domain.SlugRecord{}, nil
	}
	recs, err := s.store.Slugs().ListBySubject(ctx, cfg.Name, id)
	if err != nil {
		return nil, fmt.Errorf("service.SubjectService.History: %w", err)
	}
	return recs, nil
}

// Delete removes a subject and all of its slug records in one transaction.
// Returns domain.ErrNotFound if the subject does not exist.
func (s *SubjectService) Delete(ctx context.Context, subjectType string, id int64) error {
	cfg, err := s.opts.Registry.Lookup(subjectType)
	if err != nil {
		return fmt.Errorf("service.SubjectService.Delete: %w", err)
	}
	err = s.store.InTx(ctx, func(tx repo.Store) error {
		if _, err := tx.Slugs().DeleteBySubject(ctx, cfg.Name, id); err != nil {
			return err
		}
		return tx.Subjects().Delete(ctx, cfg.Name, id)
	})
	if err != nil {
		return fmt.Errorf("service.SubjectService.Delete: %w", err)
	}
	s.opts.Cache.Purge()
	return nil
}
