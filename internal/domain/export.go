package domain

import "time"

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per slug record, with the
// owning subject's current slug repeated so readers can tell retired
// slugs from live ones without a second query.
type ExportRow struct {
	SubjectType string
	SubjectID   int64
	Scope       string
	Slug        string
	CurrentSlug string
	CreatedAt   time.Time
}

// Current reports whether this row is the subject's live slug.
func (r ExportRow) Current() bool {
	return r.Slug == r.CurrentSlug
}
