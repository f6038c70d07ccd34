// Package edgar fetches filings and XBRL company facts from the SEC EDGAR
// data APIs.
//
// Submission histories and structured facts come from data.sec.gov; filing
// documents and the ticker table come from www.sec.gov. Both hosts reject
// requests without a descriptive User-Agent and throttle aggressive
// clients, so every call goes through a shared rate limiter and, when
// configured, the resilience executor's edgar profiles.
package edgar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/resilience"
)

const (
	defaultAPIBase           = "https://data.sec.gov"
	defaultArchiveBase       = "https://www.sec.gov"
	defaultFilingType        = "10-K"
	defaultRequestsPerSecond = 8
	defaultHTTPTimeout       = 60 * time.Second
)

type Client struct {
	apiBase     string
	archiveBase string
	userAgent   string
	httpClient  *http.Client
	limiter     *rate.Limiter
	executor    *resilience.Executor

	mu      sync.Mutex
	tickers map[string]tickerEntry
}

// Options tune the client. The zero value selects the public EDGAR hosts
// and conservative rate limits.
type Options struct {
	// APIBaseURL overrides https://data.sec.gov for submissions and facts.
	APIBaseURL string
	// ArchiveBaseURL overrides https://www.sec.gov for documents and tickers.
	ArchiveBaseURL string
	// RequestsPerSecond throttles outbound calls. Zero means 8, just under
	// the published limit of 10.
	RequestsPerSecond float64
	// HTTPTimeout bounds one request. Zero means 60s; full-submission text
	// files run to tens of megabytes.
	HTTPTimeout time.Duration
	// Executor adds retry and circuit breaking when set.
	Executor *resilience.Executor
}

// New builds an EDGAR client. The SEC requires a User-Agent naming the
// operator and a contact address, so an empty userAgent is a configuration
// error rather than a degraded mode.
func New(userAgent string, opts Options) (*Client, error) {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "build edgar client",
			errors.New("SEC requires a User-Agent identifying the caller"))
	}

	apiBase := strings.TrimRight(opts.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	archiveBase := strings.TrimRight(opts.ArchiveBaseURL, "/")
	if archiveBase == "" {
		archiveBase = defaultArchiveBase
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Client{
		apiBase:     apiBase,
		archiveBase: archiveBase,
		userAgent:   userAgent,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		executor:    opts.Executor,
	}, nil
}

// Fetch resolves identifier to a CIK, picks the newest filing matching
// filingTypeHint from the company's submission history, and downloads its
// primary document.
func (c *Client) Fetch(ctx context.Context, identifier, filingTypeHint string) (*domain.Filing, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch filing",
			errors.New("identifier is required"))
	}
	form := strings.TrimSpace(filingTypeHint)
	if form == "" {
		form = defaultFilingType
	}

	cik, err := c.resolveCIK(ctx, identifier)
	if err != nil {
		return nil, err
	}

	submissions, err := c.fetchSubmissions(ctx, cik)
	if err != nil {
		return nil, err
	}

	filing, primaryDoc, err := pickLatestFiling(submissions, cik, form)
	if err != nil {
		return nil, err
	}

	text, sourceURL, err := c.fetchDocument(ctx, cik, filing.Accession, primaryDoc)
	if err != nil {
		return nil, err
	}
	filing.RawText = text
	filing.SourceURL = sourceURL

	slog.Debug("filing fetched",
		"cik", filing.CIK,
		"accession", filing.Accession,
		"form", filing.FilingType,
		"source_url", sourceURL,
		"bytes", len(text),
	)
	return filing, nil
}

// CleanText keeps only the first <DOCUMENT> block of a full-submission
// text file. EDGAR wraps each exhibit in its own block behind an SGML
// header, and the first block is the filing itself. Documents fetched
// individually pass through unchanged.
func (c *Client) CleanText(raw string) string {
	start := strings.Index(raw, "<DOCUMENT>")
	if start < 0 {
		return raw
	}
	rest := raw[start+len("<DOCUMENT>"):]
	if end := strings.Index(rest, "</DOCUMENT>"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// submissionsResponse is the company header plus the column-oriented filing
// history EDGAR serves per CIK. Index i across the recent slices describes
// one filing, newest first.
type submissionsResponse struct {
	Name           string `json:"name"`
	SIC            string `json:"sic"`
	SICDescription string `json:"sicDescription"`
	Filings        struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	ReportDate      []string `json:"reportDate"`
}

func (c *Client) fetchSubmissions(ctx context.Context, cik string) (*submissionsResponse, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.apiBase, cik)
	var submissions submissionsResponse
	if err := c.getJSON(ctx, url, &submissions, "edgar.submissions"); err != nil {
		if isNotFound(err) {
			return nil, domain.WrapError(domain.ErrFilingNotFound, "fetch submissions",
				fmt.Errorf("no EDGAR submissions for cik %s", cik))
		}
		return nil, err
	}
	return &submissions, nil
}

// pickLatestFiling returns the newest filing whose form matches, along with
// its primary document name. The column arrays can be ragged, so each
// column is bounds-checked independently.
func pickLatestFiling(submissions *submissionsResponse, cik, form string) (*domain.Filing, string, error) {
	recent := submissions.Filings.Recent
	for i, f := range recent.Form {
		if !strings.EqualFold(f, form) {
			continue
		}
		if i >= len(recent.AccessionNumber) || recent.AccessionNumber[i] == "" {
			continue
		}
		filing := &domain.Filing{
			CIK:         cik,
			Accession:   recent.AccessionNumber[i],
			FilingType:  f,
			CompanyName: submissions.Name,
			SIC:         submissions.SIC,
			SICDesc:     submissions.SICDescription,
		}
		if i < len(recent.ReportDate) {
			filing.Period = recent.ReportDate[i]
		}
		primaryDoc := ""
		if i < len(recent.PrimaryDocument) {
			primaryDoc = recent.PrimaryDocument[i]
		}
		return filing, primaryDoc, nil
	}
	return nil, "", domain.WrapError(domain.ErrFilingNotFound, "select filing",
		fmt.Errorf("no %s in recent submissions for cik %s", form, cik))
}

// fetchDocument tries the primary document, then the first document linked
// from the archive index page, then the flat <accession>.htm name older
// filings use. The first hit wins and its URL becomes the provenance.
func (c *Client) fetchDocument(ctx context.Context, cik, accession, primaryDoc string) (string, string, error) {
	base := c.archiveDir(cik, accession)

	var lastErr error
	tried := make(map[string]bool)
	try := func(url string) (string, bool) {
		if url == "" || tried[url] {
			return "", false
		}
		tried[url] = true
		text, err := c.getText(ctx, url, "edgar.document")
		if err != nil {
			lastErr = err
			slog.Debug("filing document candidate failed", "url", url, "error", err)
			return "", false
		}
		return text, true
	}

	if primaryDoc != "" {
		url := base + "/" + primaryDoc
		if text, ok := try(url); ok {
			return text, url, nil
		}
	}

	if name, err := c.scrapeIndexDocument(ctx, base); err != nil {
		lastErr = err
		slog.Debug("archive index scrape failed", "url", base, "error", err)
	} else {
		url := base + "/" + name
		if text, ok := try(url); ok {
			return text, url, nil
		}
	}

	flat := base + "/" + strings.ReplaceAll(accession, "-", "") + ".htm"
	if text, ok := try(flat); ok {
		return text, flat, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no document candidates for accession %s", accession)
	}
	switch {
	case errors.Is(lastErr, context.Canceled), errors.Is(lastErr, context.DeadlineExceeded):
		return "", "", lastErr
	case domain.IsKind(lastErr, domain.ErrTemporary):
		return "", "", lastErr
	default:
		return "", "", domain.WrapError(domain.ErrFilingNotFound, "fetch filing document", lastErr)
	}
}

// scrapeIndexDocument pulls the filing's archive index page and returns the
// first linked .htm or .html document that is not the index itself.
func (c *Client) scrapeIndexDocument(ctx context.Context, base string) (string, error) {
	page, err := c.getText(ctx, base+"/", "edgar.document")
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse archive index: %w", err)
	}

	var name string
	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		candidate := path.Base(href)
		lowered := strings.ToLower(candidate)
		if !strings.HasSuffix(lowered, ".htm") && !strings.HasSuffix(lowered, ".html") {
			return true
		}
		if strings.Contains(lowered, "-index") {
			return true
		}
		name = candidate
		return false
	})
	if name == "" {
		return "", fmt.Errorf("no document links on archive index")
	}
	return name, nil
}

// archiveDir is the directory holding one filing's documents. Archive paths
// use the unpadded CIK and the accession number without dashes.
func (c *Client) archiveDir(cik, accession string) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s",
		c.archiveBase, unpadCIK(cik), strings.ReplaceAll(accession, "-", ""))
}

func unpadCIK(cik string) string {
	if trimmed := strings.TrimLeft(cik, "0"); trimmed != "" {
		return trimmed
	}
	return "0"
}
