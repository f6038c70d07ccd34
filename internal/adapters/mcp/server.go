// Package mcpadapter exposes filing analysis as MCP tools over stdio so
// editor agents and LLM clients can drive the pipeline directly.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

const (
	serverName    = "tenk-analyst"
	serverVersion = "1.0.0"
)

// Server bridges MCP tool calls to the analysis and report read ports.
type Server struct {
	analyzer ports.FilingAnalyzer
	reports  ports.ReportReader
}

func NewServer(analyzer ports.FilingAnalyzer, reports ports.ReportReader) *Server {
	return &Server{analyzer: analyzer, reports: reports}
}

// Serve blocks on stdio until the client disconnects.
func (s *Server) Serve() error {
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(analyzeFilingTool(), s.handleAnalyzeFiling)
	srv.AddTool(getReportTool(), s.handleGetReport)

	return server.ServeStdio(srv)
}

func analyzeFilingTool() mcp.Tool {
	return mcp.NewTool("analyze_filing",
		mcp.WithDescription("Fetch a company's SEC filing, segment and classify it, and return the full analysis report as JSON. Runs synchronously and may take a minute for large filings."),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Ticker symbol or CIK of the company to analyze"),
		),
		mcp.WithString("filing_type",
			mcp.Description("Filing form to analyze, defaults to 10-K"),
		),
	)
}

func getReportTool() mcp.Tool {
	return mcp.NewTool("get_report",
		mcp.WithDescription("Fetch a previously generated analysis report by its id and return it as JSON."),
		mcp.WithString("report_id",
			mcp.Required(),
			mcp.Description("Report id returned by analyze_filing"),
		),
	)
}

func (s *Server) handleAnalyzeFiling(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identifier, err := request.RequireString("identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filingType := request.GetString("filing_type", "")

	report, err := s.analyzer.Analyze(ctx, identifier, filingType)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analyze %s: %v", identifier, err)), nil
	}
	return reportResult(report)
}

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reportID, err := request.RequireString("report_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get report %s: %v", reportID, err)), nil
	}
	return reportResult(report)
}

func reportResult(report any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
