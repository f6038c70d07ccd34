package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

type analyzerFake struct {
	report  *domain.Report
	err     error
	gotID   string
	gotHint string
}

func (f *analyzerFake) Analyze(_ context.Context, identifier, filingTypeHint string) (*domain.Report, error) {
	f.gotID = identifier
	f.gotHint = filingTypeHint
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type readerFake struct {
	report *domain.Report
	err    error
}

func (f readerFake) GetByID(context.Context, string) (*domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f readerFake) ListByCIK(context.Context, string, int) ([]domain.Report, error) {
	return nil, nil
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatalf("expected content in tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAnalyzeFilingReturnsReportJSON(t *testing.T) {
	analyzer := &analyzerFake{report: &domain.Report{
		ID:          "rep-1",
		CIK:         "0000320193",
		CompanyName: "Apple Inc.",
		KeyTone:     domain.ToneNegative,
	}}
	s := NewServer(analyzer, readerFake{})

	result, err := s.handleAnalyzeFiling(context.Background(), toolRequest(map[string]any{
		"identifier":  "AAPL",
		"filing_type": "10-K",
	}))
	if err != nil {
		t.Fatalf("handleAnalyzeFiling() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textContent(t, result))
	}
	if analyzer.gotID != "AAPL" || analyzer.gotHint != "10-K" {
		t.Fatalf("unexpected analyzer args: %q %q", analyzer.gotID, analyzer.gotHint)
	}

	var decoded domain.Report
	if err := json.Unmarshal([]byte(textContent(t, result)), &decoded); err != nil {
		t.Fatalf("decode report payload: %v", err)
	}
	if decoded.ID != "rep-1" || decoded.KeyTone != domain.ToneNegative {
		t.Fatalf("unexpected report payload: %+v", decoded)
	}
}

func TestAnalyzeFilingRequiresIdentifier(t *testing.T) {
	s := NewServer(&analyzerFake{}, readerFake{})

	result, err := s.handleAnalyzeFiling(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleAnalyzeFiling() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing identifier")
	}
}

func TestAnalyzeFilingReportsPipelineFailureInBand(t *testing.T) {
	analyzer := &analyzerFake{err: domain.WrapError(domain.ErrFilingNotFound, "resolve ticker", errors.New("unknown ticker"))}
	s := NewServer(analyzer, readerFake{})

	result, err := s.handleAnalyzeFiling(context.Background(), toolRequest(map[string]any{
		"identifier": "ZZZZ",
	}))
	if err != nil {
		t.Fatalf("handleAnalyzeFiling() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for failed analysis")
	}
	if msg := textContent(t, result); !strings.Contains(msg, "unknown ticker") {
		t.Fatalf("expected cause in tool error, got %q", msg)
	}
}

func TestGetReportReturnsStoredReport(t *testing.T) {
	s := NewServer(&analyzerFake{}, readerFake{report: &domain.Report{ID: "rep-9", FilingType: "10-K"}})

	result, err := s.handleGetReport(context.Background(), toolRequest(map[string]any{
		"report_id": "rep-9",
	}))
	if err != nil {
		t.Fatalf("handleGetReport() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", textContent(t, result))
	}
	if !strings.Contains(textContent(t, result), `"id": "rep-9"`) {
		t.Fatalf("expected report id in payload, got %s", textContent(t, result))
	}
}

func TestGetReportMissingID(t *testing.T) {
	s := NewServer(&analyzerFake{}, readerFake{})

	result, err := s.handleGetReport(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleGetReport() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing report_id")
	}
}
