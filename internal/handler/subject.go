package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// CreateSubject handles POST /subjects/{type}.
func (s *Server) CreateSubject(w http.ResponseWriter, r *http.Request) {
	subjectType := chi.URLParam(r, "type")
	var body SlugRequest
	if !decodeBody(w, r, &body) {
		return
	}

	created, err := s.subjects.Create(r.Context(), subjectType, body.Scope, body.candidates()...)
	if err != nil {
		s.writeError(w, r, err, "subject type not found")
		return
	}
	writeJSON(w, http.StatusCreated, subjectToResponse(created))
}

// ListSubjects handles GET /subjects/{type}.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListSubjects(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if !queryParam(w, r, "page", &page) || !queryParam(w, r, "limit", &limit) {
		return
	}
	params := domain.NewPaginationParams(page, limit)

	subjects, total, err := s.subjects.List(r.Context(), chi.URLParam(r, "type"), params)
	if err != nil {
		s.writeError(w, r, err, "subject type not found")
		return
	}

	data := make([]Subject, len(subjects))
	for i, sub := range subjects {
		data[i] = subjectToResponse(sub)
	}
	writeJSON(w, http.StatusOK, SubjectList{
		Data: data,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetSubject handles GET /subjects/{type}/{id}.
func (s *Server) GetSubject(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	subject, err := s.subjects.Get(r.Context(), chi.URLParam(r, "type"), id)
	if err != nil {
		s.writeError(w, r, err, "subject not found")
		return
	}
	writeJSON(w, http.StatusOK, subjectToResponse(subject))
}

// AssignSlug handles PUT /subjects/{type}/{id}/slug.
func (s *Server) AssignSlug(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}
	var body SlugRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Scope != "" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("scope cannot be changed"))
		return
	}

	updated, err := s.assigner.Assign(r.Context(), chi.URLParam(r, "type"), id, body.candidates()...)
	if err != nil {
		s.writeError(w, r, err, "subject not found")
		return
	}
	writeJSON(w, http.StatusOK, subjectToResponse(updated))
}

// DeleteSubject handles DELETE /subjects/{type}/{id}.
func (s *Server) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	if err := s.subjects.Delete(r.Context(), chi.URLParam(r, "type"), id); err != nil {
		s.writeError(w, r, err, "subject not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /subjects/{type}/{id}/history.
// Entries are newest first; the first one is the current slug.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	var id int64
	if !pathParam(w, r, "id", &id) {
		return
	}

	recs, err := s.subjects.History(r.Context(), chi.URLParam(r, "type"), id)
	if err != nil {
		s.writeError(w, r, err, "subject not found")
		return
	}

	out := make([]HistoryEntry, len(recs))
	for i, rec := range recs {
		out[i] = HistoryEntry{
			Slug:      rec.Slug,
			Scope:     optional(rec.Scope),
			Current:   i == 0,
			CreatedAt: rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
