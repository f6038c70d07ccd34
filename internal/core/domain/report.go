package domain

import "time"

// Source records where a piece of report content came from.
type Source struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Report is the terminal aggregate of one pipeline run. Created once from the
// full set of lane results; never mutated thereafter. Serializes to a flat
// JSON object with no cyclic references.
type Report struct {
	ID          string `json:"id"`
	CIK         string `json:"cik"`
	CompanyName string `json:"company_name,omitempty"`
	Accession   string `json:"accession"`
	FilingType  string `json:"filing_type"`
	SIC         string `json:"sic,omitempty"`
	SICDesc     string `json:"sic_description,omitempty"`

	KeyTone             Tone         `json:"key_tone"`
	TopRisks            []string     `json:"top_risks,omitempty"`
	FinancialHighlights []Metric     `json:"financial_highlights,omitempty"`
	Comparables         []Comparable `json:"comparables,omitempty"`
	Narrative           string       `json:"narrative"`
	Warnings            []string     `json:"warnings,omitempty"`
	Sources             []Source     `json:"sources,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
