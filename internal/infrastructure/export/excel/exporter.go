// Package excel exports reports as XLSX workbooks with Summary, Metrics and
// Risks sheets.
package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

const (
	sheetSummary = "Summary"
	sheetMetrics = "Metrics"
	sheetRisks   = "Risks"
)

type Exporter struct {
	basePath string
}

func New(basePath string) (*Exporter, error) {
	if basePath == "" {
		basePath = "./data/exports"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Exporter{basePath: basePath}, nil
}

// Export writes <report-id>.xlsx and returns its path.
func (e *Exporter) Export(_ context.Context, report *domain.Report) (string, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := writeSummary(f, report); err != nil {
		return "", err
	}
	if err := writeMetrics(f, report); err != nil {
		return "", err
	}
	if err := writeRisks(f, report); err != nil {
		return "", err
	}

	path := filepath.Join(e.basePath, report.ID+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, report *domain.Report) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	peers := make([]string, 0, len(report.Comparables))
	for _, peer := range report.Comparables {
		peers = append(peers, peer.Name)
	}

	rows := [][]any{
		{"Company", report.CompanyName},
		{"CIK", report.CIK},
		{"Accession", report.Accession},
		{"Filing type", report.FilingType},
		{"Industry", strings.TrimSpace(report.SICDesc + " " + report.SIC)},
		{"Overall tone", string(report.KeyTone)},
		{"Comparable filers", strings.Join(peers, ", ")},
		{"Warnings", strings.Join(report.Warnings, "; ")},
		{"Generated", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Narrative", report.Narrative},
	}
	return writeRows(f, sheetSummary, rows)
}

func writeMetrics(f *excelize.File, report *domain.Report) error {
	if _, err := f.NewSheet(sheetMetrics); err != nil {
		return fmt.Errorf("create metrics sheet: %w", err)
	}
	rows := [][]any{{"Metric", "Value", "Unit", "Display"}}
	for _, metric := range report.FinancialHighlights {
		rows = append(rows, []any{metric.Key, metric.Value, metric.Unit, metric.Display})
	}
	return writeRows(f, sheetMetrics, rows)
}

func writeRisks(f *excelize.File, report *domain.Report) error {
	if _, err := f.NewSheet(sheetRisks); err != nil {
		return fmt.Errorf("create risks sheet: %w", err)
	}
	rows := [][]any{{"Rank", "Risk"}}
	for i, risk := range report.TopRisks {
		rows = append(rows, []any{i + 1, risk})
	}
	return writeRows(f, sheetRisks, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
