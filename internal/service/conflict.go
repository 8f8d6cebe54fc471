package service

import (
	"context"
	"fmt"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
	"github.com/pkordes/slugkeeper/internal/slug"
)

// ConflictResolver computes a collision-free slug for a candidate.
//
// The read is not locked. It narrows the search for the next sequence
// number; the unique indexes checked at write time are what guarantee
// uniqueness, and a lost race surfaces as domain.ErrConflict.
type ConflictResolver struct{}

// NewConflictResolver constructs a ConflictResolver.
func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

// Resolve returns candidate or its next free sequenced variant for subject.
// Conflicts are the current slugs of other subjects of the same type (and
// scope, when scoped). When the type keeps history and does not reclaim
// retired slugs, other subjects' retired slugs conflict as well.
func (r *ConflictResolver) Resolve(ctx context.Context, tx repo.Store, cfg domain.TypeConfig, subject domain.Subject, candidate string) (string, error) {
	conflicts, err := r.conflicts(ctx, tx, cfg, subject, candidate)
	if err != nil {
		return "", fmt.Errorf("service.ConflictResolver.Resolve: %w", err)
	}
	return slug.Next(candidate, cfg.Separator, conflicts), nil
}

// Pick tries candidates in order and returns the first one that is free.
// If every candidate is taken, the first one is sequenced.
func (r *ConflictResolver) Pick(ctx context.Context, tx repo.Store, cfg domain.TypeConfig, subject domain.Subject, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("service.ConflictResolver.Pick: %w: no candidates", domain.ErrValidation)
	}
	var sequenced string
	for i, c := range candidates {
		final, err := r.Resolve(ctx, tx, cfg, subject, c)
		if err != nil {
			return "", err
		}
		if final == c {
			return final, nil
		}
		if i == 0 {
			sequenced = final
		}
	}
	return sequenced, nil
}

func (r *ConflictResolver) conflicts(ctx context.Context, tx repo.Store, cfg domain.TypeConfig, subject domain.Subject, candidate string) ([]string, error) {
	q := repo.ConflictQuery{
		SubjectType: cfg.Name,
		Candidate:   candidate,
		Separator:   cfg.Separator,
		Scoped:      cfg.Scoped,
		Scope:       subject.Scope,
	}
	if subject.Persisted() {
		q.ExcludeID = subject.ID
	}

	current, err := tx.Subjects().Conflicts(ctx, q)
	if err != nil {
		return nil, err
	}
	if !cfg.History || cfg.ReclaimRetired {
		return current, nil
	}
	retired, err := tx.Slugs().Conflicts(ctx, q)
	if err != nil {
		return nil, err
	}
	return append(current, retired...), nil
}
