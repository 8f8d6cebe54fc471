package domain

import (
	"time"

	"github.com/google/uuid"
)

// SlugRecord is one row of the identifier store: a slug that was assigned to
// a subject at CreatedAt. A subject accumulates one row per distinct slug it
// has held; the newest row is its current slug.
//
// At most one row may exist per (SubjectType, Scope, Slug).
type SlugRecord struct {
	ID          uuid.UUID `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	Scope       string    `json:"scope,omitempty"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tier identifies which step of the resolver chain matched a lookup token.
type Tier string

const (
	// TierCurrent matched the subject's live slug.
	TierCurrent Tier = "current"
	// TierHistory matched a slug the subject held previously.
	TierHistory Tier = "history"
	// TierPrimaryKey matched the raw primary key.
	TierPrimaryKey Tier = "primary_key"
)

// Resolution is the outcome of resolving a lookup token to a subject.
// Stale is true when the token is not the subject's current slug, which is
// the caller's cue to redirect to CurrentSlug if it wants to.
type Resolution struct {
	SubjectType string `json:"subject_type"`
	SubjectID   int64  `json:"subject_id"`
	Tier        Tier   `json:"tier"`
	CurrentSlug string `json:"current_slug"`
	Stale       bool   `json:"stale"`
}
