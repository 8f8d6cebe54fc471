package handler

import (
	"time"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// SlugRequest is the body of POST /subjects/{type} and
// PUT /subjects/{type}/{id}/slug. Source is the text the slug is derived
// from; Candidates are tried after it in order.
type SlugRequest struct {
	Source     string   `json:"source"`
	Candidates []string `json:"candidates,omitempty"`
	Scope      string   `json:"scope,omitempty"`
}

// candidates returns Source followed by Candidates, skipping an empty Source.
func (r SlugRequest) candidates() []string {
	out := make([]string, 0, len(r.Candidates)+1)
	if r.Source != "" {
		out = append(out, r.Source)
	}
	return append(out, r.Candidates...)
}

// Subject is the JSON representation of a domain.Subject.
type Subject struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Slug      *string   `json:"slug"`
	Scope     *string   `json:"scope,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// SubjectList is the body of GET /subjects/{type}.
type SubjectList struct {
	Data       []Subject  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// HistoryEntry is one slug a subject has held.
type HistoryEntry struct {
	Slug      string    `json:"slug"`
	Scope     *string   `json:"scope,omitempty"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportRow is one record of GET /export in JSON form.
type ExportRow struct {
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	Scope       *string   `json:"scope,omitempty"`
	Slug        string    `json:"slug"`
	CurrentSlug *string   `json:"current_slug"`
	Current     bool      `json:"current"`
	CreatedAt   time.Time `json:"created_at"`
}

func subjectToResponse(s domain.Subject) Subject {
	return Subject{
		Type:      s.Type,
		ID:        s.ID,
		Slug:      optional(s.Slug),
		Scope:     optional(s.Scope),
		Source:    s.Source,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// optional maps "" to nil so empty values are null or omitted in JSON.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
