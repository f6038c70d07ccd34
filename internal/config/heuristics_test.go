package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

func TestDefaultHeuristicsCoverKnownSections(t *testing.T) {
	h := DefaultHeuristics()

	keys := map[domain.SectionKey]bool{}
	for _, rule := range h.Sections {
		keys[rule.Key] = true
	}
	for _, want := range []domain.SectionKey{
		domain.SectionBusiness,
		domain.SectionRiskFactors,
		domain.SectionMDNA,
		domain.SectionMarketRisk,
		domain.SectionFinancialStatements,
	} {
		if !keys[want] {
			t.Fatalf("default heuristics missing section rule for %q", want)
		}
	}

	cues := map[string]bool{}
	for _, cue := range h.NumericCues {
		cues[cue] = true
	}
	if !cues["revenue"] {
		t.Fatalf("default numeric cues must include revenue, got %v", h.NumericCues)
	}
}

func TestLoadHeuristicsEmptyPathReturnsDefaults(t *testing.T) {
	h, err := LoadHeuristics("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if len(h.Sections) == 0 || len(h.NumericCues) == 0 || len(h.NarrativeSections) == 0 {
		t.Fatalf("defaults must be fully populated, got %+v", h)
	}
}

func TestLoadHeuristicsOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heuristics.yaml")
	content := `
numeric_cues:
  - revenue
  - ebitda
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write heuristics file: %v", err)
	}

	h, err := LoadHeuristics(path)
	if err != nil {
		t.Fatalf("load heuristics: %v", err)
	}
	if len(h.NumericCues) != 2 || h.NumericCues[1] != "ebitda" {
		t.Fatalf("expected cue override, got %v", h.NumericCues)
	}
	if len(h.Sections) != len(DefaultHeuristics().Sections) {
		t.Fatalf("omitted lists must keep defaults, got %d section rules", len(h.Sections))
	}
}

func TestLoadHeuristicsRejectsIncompleteRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heuristics.yaml")
	content := `
sections:
  - key: risk_factors
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write heuristics file: %v", err)
	}

	_, err := LoadHeuristics(path)
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadHeuristicsMissingFileIsConfigurationError(t *testing.T) {
	_, err := LoadHeuristics(filepath.Join(t.TempDir(), "absent.yaml"))
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
