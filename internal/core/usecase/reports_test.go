package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

func TestReportsGetByID(t *testing.T) {
	repo := &fakeReportRepo{byID: map[string]*domain.Report{
		"r1": {ID: "r1", CIK: "0000320193"},
	}}
	uc := NewReportsUseCase(repo)

	report, err := uc.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if report.ID != "r1" {
		t.Fatalf("report = %+v", report)
	}
}

func TestReportsGetByIDWrapsError(t *testing.T) {
	repo := &fakeReportRepo{getErr: domain.WrapError(domain.ErrFilingNotFound, "load report", errors.New("no rows"))}
	uc := NewReportsUseCase(repo)

	_, err := uc.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrFilingNotFound) {
		t.Fatalf("error = %v, want not-found kind preserved", err)
	}
}

func TestReportsListNormalizesCIKAndLimit(t *testing.T) {
	repo := &fakeReportRepo{reports: []domain.Report{{ID: "r1"}}}
	uc := NewReportsUseCase(repo)

	reports, err := uc.ListByCIK(context.Background(), "320193", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reports))
	}
	if repo.gotCIK != "0000320193" {
		t.Fatalf("cik = %q, want zero-padded", repo.gotCIK)
	}
	if repo.gotLimit != 20 {
		t.Fatalf("limit = %d, want default 20", repo.gotLimit)
	}
}

func TestReportsListCapsLimit(t *testing.T) {
	repo := &fakeReportRepo{}
	uc := NewReportsUseCase(repo)

	if _, err := uc.ListByCIK(context.Background(), "0000320193", 500); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.gotLimit != 20 {
		t.Fatalf("limit = %d, want clamped default", repo.gotLimit)
	}
}
