package service

import (
	"context"
	"fmt"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/repo"
)

// ExportService assembles a full flat export of the identifier store.
type ExportService struct {
	slugs repo.SlugRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(slugs repo.SlugRepo) *ExportService {
	return &ExportService{slugs: slugs}
}

// Export returns one ExportRow per slug record across all subject types.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	rows, err := s.slugs.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	if rows == nil {
		return []domain.ExportRow{}, nil
	}
	return rows, nil
}
