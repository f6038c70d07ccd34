package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// HeadingRule ties a section key to the regular expression that locates its
// heading. Patterns are matched case-insensitively and unanchored; the
// extractor keeps the last occurrence to skip table-of-contents repeats.
type HeadingRule struct {
	Key     domain.SectionKey `yaml:"key"`
	Pattern string            `yaml:"pattern"`
}

// Heuristics is the segmentation/routing rule set. Compiled-in defaults can
// be overridden from a YAML file; list fields replace the default wholesale
// when present.
type Heuristics struct {
	Sections          []HeadingRule       `yaml:"sections"`
	NumericCues       []string            `yaml:"numeric_cues"`
	NarrativeSections []domain.SectionKey `yaml:"narrative_sections"`
}

// DefaultHeuristics returns the built-in rule set for annual filings.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		Sections: []HeadingRule{
			{Key: domain.SectionBusiness, Pattern: `(?i)item\s+1\s*[.\-:]\s*business\b`},
			{Key: domain.SectionRiskFactors, Pattern: `(?i)item\s+1a\s*[.\-:]?\s*risk\s+factors`},
			{Key: domain.SectionMDNA, Pattern: `(?i)item\s+7\s*[.\-:]\s*management.?s\s+discussion`},
			{Key: domain.SectionMarketRisk, Pattern: `(?i)item\s+7a\s*[.\-:]?\s*quantitative\s+and\s+qualitative\s+disclosures`},
			{Key: domain.SectionFinancialStatements, Pattern: `(?i)item\s+8\s*[.\-:]?\s*financial\s+statements(?:\s+and\s+supplementary\s+data)?`},
		},
		NumericCues: []string{"balance sheet", "cash flow", "income", "consolidated", "revenue"},
		NarrativeSections: []domain.SectionKey{
			domain.SectionBusiness,
			domain.SectionRiskFactors,
			domain.SectionMDNA,
		},
	}
}

// LoadHeuristics reads a YAML override file, falling back to defaults for any
// list the file leaves empty. An unreadable or malformed file is a
// configuration error.
func LoadHeuristics(path string) (Heuristics, error) {
	defaults := DefaultHeuristics()
	if path == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Heuristics{}, domain.WrapError(domain.ErrConfiguration, "read heuristics file", err)
	}

	var loaded Heuristics
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Heuristics{}, domain.WrapError(domain.ErrConfiguration, "parse heuristics file", err)
	}

	if len(loaded.Sections) == 0 {
		loaded.Sections = defaults.Sections
	}
	if len(loaded.NumericCues) == 0 {
		loaded.NumericCues = defaults.NumericCues
	}
	if len(loaded.NarrativeSections) == 0 {
		loaded.NarrativeSections = defaults.NarrativeSections
	}

	for _, rule := range loaded.Sections {
		if rule.Key == "" || rule.Pattern == "" {
			return Heuristics{}, domain.WrapError(domain.ErrConfiguration, "validate heuristics",
				fmt.Errorf("section rule needs both key and pattern, got key=%q pattern=%q", rule.Key, rule.Pattern))
		}
	}
	return loaded, nil
}
