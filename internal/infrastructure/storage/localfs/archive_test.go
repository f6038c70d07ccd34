package localfs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

func archiveFixture() *domain.Report {
	return &domain.Report{
		ID:          "rep-1",
		CIK:         "0000320193",
		CompanyName: "Apple Inc.",
		Accession:   "0000320193-24-000123",
		FilingType:  "10-K",
		SIC:         "3571",
		SICDesc:     "Electronic Computers",
		KeyTone:     domain.ToneNegative,
		TopRisks:    []string{"supply chain concentration", "foreign exchange exposure"},
		FinancialHighlights: []domain.Metric{
			{Key: domain.MetricRevenue, Value: 391035000000, Unit: "USD", Display: "$391,035,000,000"},
		},
		Comparables: []domain.Comparable{
			{Name: "Dell Technologies Inc.", Accession: "0000816761-24-000032", Score: 0.03},
		},
		Narrative:   "The filing reads negative with supply chain risk dominating.",
		Warnings:    []string{"similarity search degraded"},
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestArchiveWritesThreeArtifacts(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	archive := NewArchive(storage)

	location, err := archive.Save(context.Background(), archiveFixture())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	jsonBytes, err := os.ReadFile(filepath.Join(location, "report.json"))
	if err != nil {
		t.Fatalf("read report.json: %v", err)
	}
	var restored domain.Report
	if err := json.Unmarshal(jsonBytes, &restored); err != nil {
		t.Fatalf("unmarshal report.json: %v", err)
	}
	if restored.ID != "rep-1" || restored.KeyTone != domain.ToneNegative {
		t.Errorf("restored report = %+v", restored)
	}

	markdown, err := os.ReadFile(filepath.Join(location, "report.md"))
	if err != nil {
		t.Fatalf("read report.md: %v", err)
	}
	md := string(markdown)
	for _, want := range []string{
		"# Apple Inc. 10-K analysis",
		"1. supply chain concentration",
		"$391,035,000,000",
		"Dell Technologies Inc. (0000816761-24-000032)",
		"- similarity search degraded",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report.md missing %q", want)
		}
	}

	page, err := os.ReadFile(filepath.Join(location, "report.html"))
	if err != nil {
		t.Fatalf("read report.html: %v", err)
	}
	body := string(page)
	if !strings.Contains(body, "<title>Apple Inc. 10-K analysis</title>") {
		t.Error("report.html missing title")
	}
	if !strings.Contains(body, "<h2>Top risks</h2>") {
		t.Error("report.html markdown was not rendered")
	}
}

func TestRenderMarkdownOmitsEmptySections(t *testing.T) {
	report := &domain.Report{
		ID:          "rep-2",
		CIK:         "0000789019",
		Accession:   "0000789019-24-000056",
		FilingType:  "10-K",
		KeyTone:     domain.ToneNeutral,
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	md := renderMarkdown(report)

	for _, absent := range []string{"## Top risks", "## Financial highlights", "## Comparable filers", "## Warnings", "## Sources", "## Narrative"} {
		if strings.Contains(md, absent) {
			t.Errorf("markdown contains %q for an empty report", absent)
		}
	}
	if !strings.Contains(md, "# 0000789019 10-K analysis") {
		t.Errorf("markdown falls back to CIK heading, got:\n%s", md)
	}
}
