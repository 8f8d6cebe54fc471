package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"subject_type", "subject_id", "scope", "slug", "current_slug", "current", "created_at",
}

// GetExport handles GET /export.
// It returns every slug record with its subject's current slug.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if !queryParam(w, r, "format", &format) {
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		writeJSON(w, http.StatusBadRequest, requestBody("format must be csv or json"))
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	if format != nil && *format == "csv" {
		writeCSV(w, rows)
		return
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRowToResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows as CSV with a header row.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	// bytes.Buffer writes never fail.
	_ = cw.Write(csvHeaders)
	for _, row := range rows {
		_ = cw.Write(domainRowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func domainRowToResponse(r domain.ExportRow) ExportRow {
	return ExportRow{
		SubjectType: r.SubjectType,
		SubjectID:   r.SubjectID,
		Scope:       optional(r.Scope),
		Slug:        r.Slug,
		CurrentSlug: optional(r.CurrentSlug),
		Current:     r.Current(),
		CreatedAt:   r.CreatedAt,
	}
}

func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.SubjectType,
		strconv.FormatInt(r.SubjectID, 10),
		r.Scope,
		r.Slug,
		r.CurrentSlug,
		strconv.FormatBool(r.Current()),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
