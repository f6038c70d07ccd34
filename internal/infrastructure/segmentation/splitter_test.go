package segmentation

import (
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

func testFiling() *domain.Filing {
	return &domain.Filing{
		CIK:        "0000320193",
		Accession:  "0000320193-24-000123",
		FilingType: "10-K",
	}
}

func TestSplitEmitsParagraphChunks(t *testing.T) {
	section := domain.Section{
		Key: domain.SectionRiskFactors,
		Text: "The company depends on a small number of large customers.\n\n" +
			"Supply chain disruption would materially affect operations.",
	}

	chunks := NewSegmenter(40).Split(testFiling(), []domain.Section{section})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ID == "" {
			t.Fatalf("chunk %d has empty id", i)
		}
		if chunk.CIK != "0000320193" || chunk.Accession != "0000320193-24-000123" {
			t.Fatalf("chunk %d lost filing provenance: %+v", i, chunk)
		}
		if chunk.Section != domain.SectionRiskFactors {
			t.Fatalf("chunk %d lost section label: %q", i, chunk.Section)
		}
	}
	if chunks[0].ID == chunks[1].ID {
		t.Fatalf("chunk ids must be unique, both %q", chunks[0].ID)
	}
	if chunks[0].Text != "The company depends on a small number of large customers." {
		t.Fatalf("unexpected first chunk text: %q", chunks[0].Text)
	}
}

func TestSplitDropsBlankParagraphs(t *testing.T) {
	section := domain.Section{
		Key:  domain.SectionMDNA,
		Text: "Results of operations improved year over year.\n\n   \n\nLiquidity remains sufficient for the period.",
	}

	chunks := NewSegmenter(1).Split(testFiling(), []domain.Section{section})
	if len(chunks) != 2 {
		t.Fatalf("expected blank paragraph dropped, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Text == "" {
			t.Fatalf("chunk %d has empty text", i)
		}
	}
}

func TestSplitSkipsSectionsBelowFloor(t *testing.T) {
	sections := []domain.Section{
		{Key: domain.SectionBusiness, Text: "Too short."},
		{Key: domain.SectionRiskFactors, Text: "This section is comfortably longer than the configured character floor."},
	}

	chunks := NewSegmenter(40).Split(testFiling(), sections)
	if len(chunks) != 1 {
		t.Fatalf("expected only the long section chunked, got %d chunks", len(chunks))
	}
	if chunks[0].Section != domain.SectionRiskFactors {
		t.Fatalf("expected surviving chunk from risk_factors, got %q", chunks[0].Section)
	}
}

func TestSegmenterDefaultsFloor(t *testing.T) {
	segmenter := NewSegmenter(0)
	if segmenter.minSectionChars != defaultMinSectionChars {
		t.Fatalf("expected default floor %d, got %d", defaultMinSectionChars, segmenter.minSectionChars)
	}
}

func TestSplitNoSections(t *testing.T) {
	if chunks := NewSegmenter(40).Split(testFiling(), nil); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
