package usecase

import (
	"context"
	"fmt"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ReportsUseCase serves stored reports to the read-side surfaces.
type ReportsUseCase struct {
	repo ports.ReportRepository
}

func NewReportsUseCase(repo ports.ReportRepository) *ReportsUseCase {
	return &ReportsUseCase{repo: repo}
}

func (uc *ReportsUseCase) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	report, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report %q: %w", id, err)
	}
	return report, nil
}

// ListByCIK returns the most recent reports for a company, newest first. The
// CIK is normalized so callers may pass the short or padded form.
func (uc *ReportsUseCase) ListByCIK(ctx context.Context, cik string, limit int) ([]domain.Report, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	reports, err := uc.repo.ListByCIK(ctx, domain.NormalizeCIK(cik), limit)
	if err != nil {
		return nil, fmt.Errorf("list reports for cik %q: %w", cik, err)
	}
	return reports, nil
}
