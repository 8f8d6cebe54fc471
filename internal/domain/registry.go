package domain

import (
	"fmt"
	"slices"
	"sort"
)

// DefaultSeparator joins a base slug to its disambiguating sequence number.
const DefaultSeparator = "--"

// TypeConfig holds the per-subject-type slug behaviour.
type TypeConfig struct {
	// Name is the subject_type discriminator stored on every row.
	Name string

	// History enables the identifier store: every slug a subject holds is
	// recorded, and retired slugs keep resolving to it.
	History bool

	// Scoped restricts uniqueness to subjects sharing the same scope value.
	Scoped bool

	// Separator is placed between a base slug and its sequence number.
	Separator string

	// ReclaimRetired lets a subject take a slug another subject has retired.
	// When false, retired slugs of other subjects count as conflicts and
	// old links never move to a new owner.
	ReclaimRetired bool

	// Reserved lists slugs that may never be assigned (route words, etc).
	Reserved []string
}

// IsReserved reports whether slug is one of the type's reserved words.
func (c TypeConfig) IsReserved(slug string) bool {
	return slices.Contains(c.Reserved, slug)
}

// Registry maps subject type names to their configuration.
// It is built once at startup and passed explicitly to the services.
type Registry struct {
	types map[string]TypeConfig
}

// NewRegistry builds a Registry, filling the default separator where unset.
func NewRegistry(types ...TypeConfig) Registry {
	r := Registry{types: make(map[string]TypeConfig, len(types))}
	for _, t := range types {
		if t.Separator == "" {
			t.Separator = DefaultSeparator
		}
		r.types[t.Name] = t
	}
	return r
}

// Lookup returns the configuration for the named subject type.
// Returns ErrNotFound for types that were never registered.
func (r Registry) Lookup(name string) (TypeConfig, error) {
	t, ok := r.types[name]
	if !ok {
		return TypeConfig{}, fmt.Errorf("unknown subject type %q: %w", name, ErrNotFound)
	}
	return t, nil
}

// Names returns the registered type names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
