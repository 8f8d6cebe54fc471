// Package domain contains the core data types for the slugkeeper service.
// This package has no dependencies on other internal packages and is imported
// by every one of them (repo, service, handler, cli).
package domain

import (
	"strconv"
	"time"
)

// Subject is any record that owns exactly one current slug.
// ID is immutable once persisted; Type discriminates the polymorphic
// association held by SlugRecord. Scope is "" for unscoped types.
type Subject struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Scope     string    `json:"scope,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Persisted reports whether the subject already has a primary key.
func (s Subject) Persisted() bool {
	return s.ID != 0
}

// Key returns the primary key as it appears in a lookup token.
func (s Subject) Key() string {
	return strconv.FormatInt(s.ID, 10)
}
