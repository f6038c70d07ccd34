package segmentation

import (
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// Runs all four stages over one small filing and checks the routed output
// end to end.
func TestPipelineSegmentsAndRoutesFiling(t *testing.T) {
	raw := "Item 1A. Risk Factors\nThere is significant regulatory risk.\n\n" +
		"Item 8. Financial Statements\nRevenue was $10,000."

	filing := testFiling()
	normalized := NewNormalizer().Normalize(raw)
	sections := mustExtractor(t, testRules()).Extract(normalized)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	chunks := NewSegmenter(40).Split(filing, sections)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	routed := testRouter().Route(filing, chunks)
	if routed[0].Lane != domain.LaneNarrative {
		t.Fatalf("expected risk chunk narrative, got %q", routed[0].Lane)
	}
	if routed[1].Lane != domain.LaneNumeric {
		t.Fatalf("expected revenue chunk numeric, got %q", routed[1].Lane)
	}
}

func TestPipelineExcludesQuarterlyFiling(t *testing.T) {
	raw := "Item 8. Financial Statements\nRevenue was $10,000 and consolidated income rose."

	filing := testFiling()
	filing.FilingType = "10-Q"

	normalized := NewNormalizer().Normalize(raw)
	sections := mustExtractor(t, testRules()).Extract(normalized)
	chunks := NewSegmenter(40).Split(filing, sections)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	for i, rc := range testRouter().Route(filing, chunks) {
		if rc.Lane != domain.LaneExcluded {
			t.Fatalf("expected chunk %d excluded, got %q", i, rc.Lane)
		}
	}
}
