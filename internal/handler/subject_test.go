package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/handler"
)

func subjectFixture() domain.Subject {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.Subject{Type: "article", ID: 7, Slug: "apple-pie", Source: "Apple Pie", CreatedAt: ts, UpdatedAt: ts}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// ---- POST /subjects/{type} -------------------------------------------------

func TestCreateSubject_Returns201(t *testing.T) {
	svc := &mockSubjectServicer{
		create: func(_ context.Context, subjectType, scope string, candidates ...string) (domain.Subject, error) {
			assert.Equal(t, "article", subjectType)
			assert.Equal(t, "", scope)
			assert.Equal(t, []string{"Apple Pie", "Apple Pie 2025"}, candidates)
			return subjectFixture(), nil
		},
	}

	body := `{"source":"Apple Pie","candidates":["Apple Pie 2025"]}`
	req := httptest.NewRequest(http.MethodPost, "/subjects/article", strings.NewReader(body))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got handler.Subject
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(7), got.ID)
	require.NotNil(t, got.Slug)
	assert.Equal(t, "apple-pie", *got.Slug)
	assert.Nil(t, got.Scope)
}

func TestCreateSubject_MissingBody_Returns422(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/subjects/article", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Error.Code)
}

func TestCreateSubject_UnknownField_Returns422(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/subjects/article", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateSubject_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"unknown type", fmt.Errorf("service.SubjectService.Create: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"reserved", fmt.Errorf("service.SubjectService.Create: %w: slug \"new\" is reserved", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error"},
		{"contended", fmt.Errorf("service.SubjectService.Create: %w: subjects_type_scope_slug_key", domain.ErrConflict), http.StatusConflict, "conflict"},
		{"storage", errors.New("connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSubjectServicer{
				create: func(context.Context, string, string, ...string) (domain.Subject, error) {
					return domain.Subject{}, tc.err
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/subjects/article", strings.NewReader(`{"source":"new"}`))
			rec := httptest.NewRecorder()
			newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

			require.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantBody, decodeError(t, rec).Error.Code)
		})
	}
}

func TestCreateSubject_ValidationMessageIsUnwrapped(t *testing.T) {
	svc := &mockSubjectServicer{
		create: func(context.Context, string, string, ...string) (domain.Subject, error) {
			return domain.Subject{}, fmt.Errorf("service.SubjectService.Create: %w: type \"article\" is not scoped", domain.ErrValidation)
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/subjects/article", strings.NewReader(`{"source":"x","scope":"blog"}`))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, `type "article" is not scoped`, decodeError(t, rec).Error.Message)
}

// ---- GET /subjects/{type} --------------------------------------------------

func TestListSubjects_Pagination(t *testing.T) {
	svc := &mockSubjectServicer{
		list: func(_ context.Context, _ string, p domain.PaginationParams) ([]domain.Subject, int64, error) {
			assert.Equal(t, domain.PaginationParams{Page: 2, Limit: 5}, p)
			return []domain.Subject{subjectFixture()}, 6, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/subjects/article?page=2&limit=5", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got handler.SubjectList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got.Data, 1)
	assert.Equal(t, handler.Pagination{Page: 2, Limit: 5, Total: 6}, got.Pagination)
}

func TestListSubjects_BadPage_Returns400(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/subjects/article?page=abc", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_parameter", decodeError(t, rec).Error.Code)
}

// ---- GET /subjects/{type}/{id} ---------------------------------------------

func TestGetSubject_Returns200(t *testing.T) {
	svc := &mockSubjectServicer{
		get: func(_ context.Context, subjectType string, id int64) (domain.Subject, error) {
			assert.Equal(t, "article", subjectType)
			assert.Equal(t, int64(7), id)
			return subjectFixture(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/subjects/article/7", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSubject_NotFound_Returns404(t *testing.T) {
	svc := &mockSubjectServicer{
		get: func(context.Context, string, int64) (domain.Subject, error) {
			return domain.Subject{}, domain.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/subjects/article/7", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "subject not found", decodeError(t, rec).Error.Message)
}

func TestGetSubject_NonNumericID_Returns400(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/subjects/article/apple", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- PUT /subjects/{type}/{id}/slug ----------------------------------------

func TestAssignSlug_Returns200(t *testing.T) {
	assigner := &mockAssigner{
		assign: func(_ context.Context, subjectType string, id int64, candidates ...string) (domain.Subject, error) {
			assert.Equal(t, int64(7), id)
			assert.Equal(t, []string{"Pear Tart"}, candidates)
			s := subjectFixture()
			s.Slug = "pear-tart"
			return s, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/subjects/article/7/slug", strings.NewReader(`{"source":"Pear Tart"}`))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{assigner: assigner}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got handler.Subject
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "pear-tart", *got.Slug)
}

func TestAssignSlug_ScopeChange_Returns422(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/subjects/article/7/slug", strings.NewReader(`{"source":"x","scope":"other"}`))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAssignSlug_Conflict_Returns409(t *testing.T) {
	assigner := &mockAssigner{
		assign: func(context.Context, string, int64, ...string) (domain.Subject, error) {
			return domain.Subject{}, fmt.Errorf("service.SlugAssigner.Assign: %w", domain.ErrConflict)
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/subjects/article/7/slug", strings.NewReader(`{"source":"x"}`))
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{assigner: assigner}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slug conflict", decodeError(t, rec).Error.Message)
}

// ---- DELETE /subjects/{type}/{id} ------------------------------------------

func TestDeleteSubject_Returns204(t *testing.T) {
	called := false
	svc := &mockSubjectServicer{
		delete: func(_ context.Context, _ string, id int64) error {
			called = true
			assert.Equal(t, int64(7), id)
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/subjects/article/7", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func TestDeleteSubject_NotFound_Returns404(t *testing.T) {
	svc := &mockSubjectServicer{
		delete: func(context.Context, string, int64) error { return domain.ErrNotFound },
	}

	req := httptest.NewRequest(http.MethodDelete, "/subjects/article/7", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- GET /subjects/{type}/{id}/history -------------------------------------

func TestGetHistory_MarksNewestAsCurrent(t *testing.T) {
	svc := &mockSubjectServicer{
		history: func(context.Context, string, int64) ([]domain.SlugRecord, error) {
			return []domain.SlugRecord{{Slug: "pear"}, {Slug: "apple"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/subjects/article/7/history", nil)
	rec := httptest.NewRecorder()
	newHTTPHandler(deps{subjects: svc}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []handler.HistoryEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.True(t, got[0].Current)
	assert.False(t, got[1].Current)
}
