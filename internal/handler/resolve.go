package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Resolve handles GET /resolve/{type}/{token}.
// An optional ?scope= narrows scoped types. The response says which tier
// matched and whether the token is stale; redirecting is left to the caller.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var token string
	if !pathParam(w, r, "token", &token) {
		return
	}
	var scope *string
	if !queryParam(w, r, "scope", &scope) {
		return
	}

	res, err := s.resolver.Resolve(r.Context(), chi.URLParam(r, "type"), scope, token)
	if err != nil {
		s.writeError(w, r, err, "no subject matches "+token)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
