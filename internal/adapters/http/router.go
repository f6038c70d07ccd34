// Package httpadapter exposes the analysis pipeline over HTTP: filing
// submissions, report reads, health and metrics endpoints.
package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/filinglab/tenk-analyst/internal/config"
	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
	"github.com/filinglab/tenk-analyst/internal/observability/metrics"
)

const serviceName = "api"

// Router wires inbound HTTP routes to the submission and report read ports.
type Router struct {
	cfg       config.Config
	submitter ports.AnalysisSubmitter
	reports   ports.ReportReader
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, submitter ports.AnalysisSubmitter, reports ports.ReportReader, m *metrics.HTTPServerMetrics) *Router {
	return &Router{cfg: cfg, submitter: submitter, reports: reports, metrics: m}
}

// Handler assembles the route table and middleware chain. Outermost to
// innermost: request ID, access log, metrics, rate limit, backpressure,
// optional OpenAPI request validation, mux.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.handleHealthz)
	mux.HandleFunc("POST /v1/analyses", rt.handleSubmitAnalysis)
	mux.HandleFunc("GET /v1/reports/{report_id}", rt.handleGetReport)
	mux.HandleFunc("GET /v1/companies/{cik}/reports", rt.handleListCompanyReports)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.APIValidateSpec {
		validate, err := newOpenAPIValidator()
		if err != nil {
			slog.Error("openapi request validation disabled", "error", err)
		} else {
			handler = validate(handler)
		}
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, defaultInFlightWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitAnalysisRequest struct {
	Identifier string `json:"identifier"`
	FilingType string `json:"filing_type"`
}

func (rt *Router) handleSubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	var req submitAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Identifier) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "identifier is required"})
		return
	}

	requestID, err := rt.submitter.Submit(r.Context(), req.Identifier, req.FilingType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordSubmission(serviceName)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"request_id": requestID,
		"status":     "accepted",
	})
}

func (rt *Router) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("report_id")
	if strings.TrimSpace(id) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report id is required"})
		return
	}

	report, err := rt.reports.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordReportServed(serviceName, "report_by_id")
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) handleListCompanyReports(w http.ResponseWriter, r *http.Request) {
	cik := r.PathValue("cik")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	reports, err := rt.reports.ListByCIK(r.Context(), cik, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	if rt.metrics != nil {
		rt.metrics.RecordReportServed(serviceName, "reports_by_cik")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cik":     domain.NormalizeCIK(cik),
		"count":   len(reports),
		"reports": reports,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
