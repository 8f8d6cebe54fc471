package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/metrics"
	"github.com/pkordes/slugkeeper/internal/repo"
	"github.com/pkordes/slugkeeper/internal/slug"
)

// SlugAssigner moves a subject's candidate text through the conflict
// resolver and writes the result: the subject's current slug and, for types
// with history, a row in the identifier store.
type SlugAssigner struct {
	store    repo.Store
	resolver *ConflictResolver
	opts     Options
	log      *slog.Logger
}

// NewSlugAssigner constructs a SlugAssigner over store.
func NewSlugAssigner(store repo.Store, opts Options) *SlugAssigner {
	opts = opts.withDefaults()
	return &SlugAssigner{
		store:    store,
		resolver: NewConflictResolver(),
		opts:     opts,
		log:      opts.Logger,
	}
}

// Assign gives the subject a slug derived from the first usable candidate.
// Raw candidates are normalized first; blank ones are ignored, and if none
// remain the subject keeps its slug. The whole assignment runs in one
// transaction and is retried with a freshly resolved slug when a concurrent
// writer wins the race, up to Options.MaxAttempts.
//
// Returns domain.ErrNotFound for unknown types or subjects,
// domain.ErrValidation if every candidate is reserved, and
// domain.ErrConflict once the retry budget is spent.
func (a *SlugAssigner) Assign(ctx context.Context, subjectType string, id int64, candidates ...string) (domain.Subject, error) {
	cfg, err := a.opts.Registry.Lookup(subjectType)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("service.SlugAssigner.Assign: %w", err)
	}

	var out domain.Subject
	err = a.retry(ctx, cfg.Name, func() error {
		return a.store.InTx(ctx, func(tx repo.Store) error {
			subject, err := tx.Subjects().GetByID(ctx, cfg.Name, id)
			if err != nil {
				return err
			}
			out, err = a.AssignTx(ctx, tx, cfg, subject, candidates)
			return err
		})
	})
	if err != nil {
		return domain.Subject{}, fmt.Errorf("service.SlugAssigner.Assign: %w", err)
	}
	a.opts.Cache.Purge()
	return out, nil
}

// AssignTx performs one assignment attempt inside the caller's transaction.
// The subject must be persisted. It returns the subject with its new slug.
func (a *SlugAssigner) AssignTx(ctx context.Context, tx repo.Store, cfg domain.TypeConfig, subject domain.Subject, raw []string) (domain.Subject, error) {
	candidates, err := a.Candidates(cfg, raw)
	if err != nil {
		return domain.Subject{}, err
	}
	if len(candidates) == 0 {
		a.opts.Metrics.Assignment(cfg.Name, metrics.OutcomeUnchanged)
		return subject, nil
	}

	current, err := a.currentSlug(ctx, tx, cfg, subject)
	if err != nil {
		return domain.Subject{}, err
	}
	for _, c := range candidates {
		if current != "" && slug.IsVariant(current, c, cfg.Separator) {
			a.opts.Metrics.Assignment(cfg.Name, metrics.OutcomeUnchanged)
			subject.Slug = current
			return subject, nil
		}
	}

	final, err := a.resolver.Pick(ctx, tx, cfg, subject, candidates)
	if err != nil {
		return domain.Subject{}, err
	}

	if cfg.History {
		if err := a.record(ctx, tx, cfg, subject, final); err != nil {
			return domain.Subject{}, err
		}
	}
	if err := tx.Subjects().UpdateSlug(ctx, cfg.Name, subject.ID, final); err != nil {
		return domain.Subject{}, err
	}

	a.log.DebugContext(ctx, "slug assigned",
		"subject_type", cfg.Name,
		"subject_id", subject.ID,
		"previous", current,
		"slug", final,
	)
	a.opts.Metrics.Assignment(cfg.Name, metrics.OutcomeAssigned)
	subject.Slug = final
	return subject, nil
}

// Candidates normalizes raw candidates, dropping blanks and duplicates.
// Reserved candidates are dropped too; if that leaves nothing although
// something was supplied, it returns domain.ErrValidation.
func (a *SlugAssigner) Candidates(cfg domain.TypeConfig, raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	var reserved []string
	for _, r := range raw {
		c := a.opts.Normalizer.Normalize(r)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if cfg.IsReserved(c) {
			reserved = append(reserved, c)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 && len(reserved) > 0 {
		return nil, fmt.Errorf("%w: slug %q is reserved", domain.ErrValidation, strings.Join(reserved, ", "))
	}
	return out, nil
}

// currentSlug is the subject's newest history row when the type keeps
// history, or the live column otherwise.
func (a *SlugAssigner) currentSlug(ctx context.Context, tx repo.Store, cfg domain.TypeConfig, subject domain.Subject) (string, error) {
	if !cfg.History {
		return subject.Slug, nil
	}
	rec, err := tx.Slugs().MostRecent(ctx, cfg.Name, subject.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return subject.Slug, nil
	}
	if err != nil {
		return "", err
	}
	return rec.Slug, nil
}

// record writes final to the identifier store. Rows holding final are
// locked first; rows of other subjects are retired slugs being reclaimed and
// are deleted, and a row of the subject itself is revived instead of
// inserting a duplicate.
func (a *SlugAssigner) record(ctx context.Context, tx repo.Store, cfg domain.TypeConfig, subject domain.Subject, final string) error {
	held, err := tx.Slugs().LockBySlug(ctx, cfg.Name, subject.Scope, final)
	if err != nil {
		return err
	}

	var own *domain.SlugRecord
	others := 0
	for i := range held {
		if held[i].SubjectID == subject.ID {
			own = &held[i]
			continue
		}
		others++
	}

	if others > 0 {
		if !cfg.ReclaimRetired {
			return fmt.Errorf("%w: %q is retired by another subject", domain.ErrConflict, final)
		}
		n, err := tx.Slugs().DeleteOthers(ctx, subject, final)
		if err != nil {
			return err
		}
		a.opts.Metrics.Reclaim(cfg.Name, n)
		a.log.DebugContext(ctx, "reclaimed retired slug",
			"subject_type", cfg.Name,
			"subject_id", subject.ID,
			"slug", final,
			"rows", n,
		)
	}

	if own != nil {
		return tx.Slugs().Revive(ctx, own.ID)
	}
	_, err = tx.Slugs().Record(ctx, subject, final)
	return err
}

// retry runs fn until it succeeds, fails with anything but
// domain.ErrConflict, or the attempt budget is spent.
func (a *SlugAssigner) retry(ctx context.Context, subjectType string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if attempt < a.opts.MaxAttempts {
			a.opts.Metrics.ConflictRetry(subjectType)
			a.log.DebugContext(ctx, "slug conflict, retrying",
				"subject_type", subjectType,
				"attempt", attempt,
				"error", err,
			)
		}
	}
	a.opts.Metrics.Assignment(subjectType, metrics.OutcomeConflict)
	return err
}
