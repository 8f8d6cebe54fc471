package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/metrics"
	"github.com/pkordes/slugkeeper/internal/repo"
)

// ResolverChain resolves an arbitrary lookup token to a subject by trying,
// in order: the current slug, the identifier store, and the primary key.
// The first tier that matches wins.
type ResolverChain struct {
	store repo.Store
	opts  Options
}

// NewResolverChain constructs a ResolverChain over store.
func NewResolverChain(store repo.Store, opts Options) *ResolverChain {
	return &ResolverChain{store: store, opts: opts.withDefaults()}
}

// Resolve maps token to a subject of subjectType.
//
// A nil scope matches any scope; scope is ignored for unscoped types.
// Tokens that look like primary keys skip the history tier. Returns
// domain.ErrNotFound when no tier matches.
func (c *ResolverChain) Resolve(ctx context.Context, subjectType string, scope *string, token string) (domain.Resolution, error) {
	cfg, err := c.opts.Registry.Lookup(subjectType)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("service.ResolverChain.Resolve: %w", err)
	}
	if !cfg.Scoped {
		scope = nil
	}

	key := cacheKey(cfg.Name, scope, token)
	if res, ok := c.opts.Cache.get(key); ok {
		return res, nil
	}

	res, err := c.resolve(ctx, cfg, scope, token)
	if errors.Is(err, domain.ErrNotFound) {
		c.opts.Metrics.Resolution(cfg.Name, metrics.TierNotFound)
	}
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("service.ResolverChain.Resolve: %w", err)
	}
	c.opts.Metrics.Resolution(cfg.Name, string(res.Tier))
	c.opts.Cache.add(key, res)
	return res, nil
}

func (c *ResolverChain) resolve(ctx context.Context, cfg domain.TypeConfig, scope *string, token string) (domain.Resolution, error) {
	subject, err := c.store.Subjects().GetBySlug(ctx, cfg.Name, scope, token)
	if err == nil {
		return resolution(subject, domain.TierCurrent, token), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Resolution{}, err
	}

	isKey := c.opts.IsPrimaryKey(token)

	if cfg.History && !isKey {
		ids, err := c.store.Slugs().FindBySlug(ctx, cfg.Name, token)
		if err != nil {
			return domain.Resolution{}, err
		}
		for _, id := range ids {
			subject, ok, err := c.load(ctx, cfg, scope, id)
			if err != nil {
				return domain.Resolution{}, err
			}
			if ok {
				return resolution(subject, domain.TierHistory, token), nil
			}
		}
	}

	// The predicate only gates the history tier; any token that parses
	// as a key still falls back to a primary-key lookup.
	if id, perr := strconv.ParseInt(token, 10, 64); perr == nil {
		subject, ok, err := c.load(ctx, cfg, scope, id)
		if err != nil {
			return domain.Resolution{}, err
		}
		if ok {
			return resolution(subject, domain.TierPrimaryKey, token), nil
		}
	}

	return domain.Resolution{}, fmt.Errorf("%s %q: %w", cfg.Name, token, domain.ErrNotFound)
}

// load fetches a subject by key and applies the scope filter.
func (c *ResolverChain) load(ctx context.Context, cfg domain.TypeConfig, scope *string, id int64) (domain.Subject, bool, error) {
	subject, err := c.store.Subjects().GetByID(ctx, cfg.Name, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Subject{}, false, nil
	}
	if err != nil {
		return domain.Subject{}, false, err
	}
	if scope != nil && subject.Scope != *scope {
		return domain.Subject{}, false, nil
	}
	return subject, true, nil
}

func resolution(s domain.Subject, tier domain.Tier, token string) domain.Resolution {
	return domain.Resolution{
		SubjectType: s.Type,
		SubjectID:   s.ID,
		Tier:        tier,
		CurrentSlug: s.Slug,
		Stale:       s.Slug != "" && s.Slug != token,
	}
}
