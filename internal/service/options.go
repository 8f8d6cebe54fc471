// Package service contains the business logic for slugkeeper: resolving
// slug conflicts, assigning slugs to subjects, and resolving lookup tokens
// back to subjects. Services validate inputs, enforce business rules, and
// orchestrate repo calls. No SQL lives here; services depend on repo
// interfaces, not implementations.
package service

import (
	"log/slog"
	"strconv"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/metrics"
	"github.com/pkordes/slugkeeper/internal/slug"
)

// DefaultMaxAttempts bounds how often an assignment is retried after a
// unique constraint rejects the resolved slug.
const DefaultMaxAttempts = 3

// Options is the configuration shared by the slug services. It is built
// once at startup and passed to every constructor; nothing here is global.
type Options struct {
	// Registry holds the per-type settings. Required.
	Registry domain.Registry

	// Normalizer turns raw text into a candidate. Defaults to slug.Default.
	Normalizer slug.Normalizer

	// IsPrimaryKey reports whether a lookup token has the shape of a primary
	// key. Such tokens skip the history tier. Defaults to IsIntKey.
	IsPrimaryKey func(token string) bool

	// MaxAttempts bounds conflict retries per assignment. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// Cache is an optional resolution cache shared by the resolver chain
	// and the writers that invalidate it.
	Cache *ResolutionCache

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// withDefaults fills every unset optional field.
func (o Options) withDefaults() Options {
	if o.Normalizer == nil {
		o.Normalizer = slug.Default
	}
	if o.IsPrimaryKey == nil {
		o.IsPrimaryKey = IsIntKey
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// IsIntKey reports whether token parses as a base-10 int64.
func IsIntKey(token string) bool {
	_, err := strconv.ParseInt(token, 10, 64)
	return err == nil
}
