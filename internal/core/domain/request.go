package domain

import "time"

// AnalyzeRequest asks the pipeline to analyze one company's latest filing.
// Identifier is a ticker or CIK; FilingType is the caller's filing-type hint.
type AnalyzeRequest struct {
	RequestID   string    `json:"request_id"`
	Identifier  string    `json:"identifier"`
	FilingType  string    `json:"filing_type,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NarrativeContext is the structured input handed to the narrative generator.
// It carries the same aggregates the template fallback is filled from.
type NarrativeContext struct {
	CompanyName string       `json:"company_name,omitempty"`
	CIK         string       `json:"cik"`
	FilingType  string       `json:"filing_type"`
	KeyTone     Tone         `json:"key_tone"`
	TopRisks    []string     `json:"top_risks,omitempty"`
	Highlights  []Metric     `json:"highlights,omitempty"`
	Comparables []Comparable `json:"comparables,omitempty"`
}
