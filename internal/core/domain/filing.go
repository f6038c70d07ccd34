package domain

import "strings"

// SectionKey names a recognized structural section of an annual filing.
type SectionKey string

const (
	SectionBusiness            SectionKey = "business"
	SectionRiskFactors         SectionKey = "risk_factors"
	SectionMDNA                SectionKey = "mdna"
	SectionMarketRisk          SectionKey = "market_risk"
	SectionFinancialStatements SectionKey = "financial_statements"

	// SectionFullDocument is the fallback key used when no heading matches.
	SectionFullDocument SectionKey = "full_document"
)

// Filing is one fetched regulatory filing. Immutable once fetched; owned by
// the pipeline run that created it.
type Filing struct {
	CIK         string `json:"cik"`
	Accession   string `json:"accession"`
	FilingType  string `json:"filing_type"`
	CompanyName string `json:"company_name,omitempty"`
	SIC         string `json:"sic,omitempty"`
	SICDesc     string `json:"sic_description,omitempty"`
	Period      string `json:"period,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	RawText     string `json:"-"`
}

// Section is a named slice of a filing's normalized text. Sections within one
// filing are non-overlapping and ordered by Start.
type Section struct {
	Key   SectionKey `json:"key"`
	Start int        `json:"start"`
	End   int        `json:"end"`
	Text  string     `json:"text"`
}

// NormalizeCIK left-pads a CIK to the canonical 10-digit form.
func NormalizeCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if len(trimmed) >= 10 {
		return trimmed
	}
	return strings.Repeat("0", 10-len(trimmed)) + trimmed
}
