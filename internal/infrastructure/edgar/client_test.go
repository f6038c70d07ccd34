package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

const tickersFixture = `{
  "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
  "1": {"cik_str": 789019, "ticker": "MSFT", "title": "Microsoft Corp"}
}`

const submissionsFixture = `{
  "name": "Apple Inc.",
  "sic": "3571",
  "sicDescription": "Electronic Computers",
  "filings": {
    "recent": {
      "accessionNumber": ["0000320193-24-000081", "0000320193-24-000123"],
      "form": ["10-Q", "10-K"],
      "primaryDocument": ["aapl-20240629.htm", "aapl-20240928.htm"],
      "reportDate": ["2024-06-29", "2024-09-28"]
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("tenk-analyst admin@example.com", Options{
		APIBaseURL:        server.URL,
		ArchiveBaseURL:    server.URL,
		RequestsPerSecond: 1000,
	})
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	return client
}

func TestNewRequiresUserAgent(t *testing.T) {
	_, err := New("   ", Options{})
	if err == nil {
		t.Fatal("expected an error without a User-Agent")
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration kind", err)
	}
}

func TestFetchResolvesTickerAndDownloadsPrimaryDocument(t *testing.T) {
	var requested []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if got := r.Header.Get("User-Agent"); got != "tenk-analyst admin@example.com" {
			t.Errorf("User-Agent = %q", got)
		}
		switch r.URL.Path {
		case "/files/company_tickers.json":
			_, _ = w.Write([]byte(tickersFixture))
		case "/submissions/CIK0000320193.json":
			_, _ = w.Write([]byte(submissionsFixture))
		case "/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm":
			_, _ = w.Write([]byte("<html><body>Annual report narrative.</body></html>"))
		default:
			http.NotFound(w, r)
		}
	})

	filing, err := client.Fetch(context.Background(), "aapl", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if filing.CIK != "0000320193" {
		t.Fatalf("cik = %q", filing.CIK)
	}
	if filing.Accession != "0000320193-24-000123" {
		t.Fatalf("accession = %q, want the newest 10-K", filing.Accession)
	}
	if filing.FilingType != "10-K" || filing.Period != "2024-09-28" {
		t.Fatalf("filing = %+v", filing)
	}
	if filing.CompanyName != "Apple Inc." || filing.SIC != "3571" || filing.SICDesc != "Electronic Computers" {
		t.Fatalf("company profile = %+v", filing)
	}
	if !strings.Contains(filing.RawText, "Annual report narrative.") {
		t.Fatalf("raw text = %q", filing.RawText)
	}
	if !strings.HasSuffix(filing.SourceURL, "/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm") {
		t.Fatalf("source url = %q", filing.SourceURL)
	}

	for _, path := range requested {
		if path == "/submissions/CIK320193.json" {
			t.Fatal("submissions request used an unpadded cik")
		}
	}
}

func TestFetchByCIKSkipsTickerLookup(t *testing.T) {
	var requested []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		switch r.URL.Path {
		case "/submissions/CIK0000320193.json":
			_, _ = w.Write([]byte(submissionsFixture))
		case "/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm":
			_, _ = w.Write([]byte("body"))
		default:
			http.NotFound(w, r)
		}
	})

	if _, err := client.Fetch(context.Background(), "320193", "10-K"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	for _, path := range requested {
		if path == "/files/company_tickers.json" {
			t.Fatal("numeric identifier must not trigger a ticker lookup")
		}
	}
}

func TestFetchFallsBackToIndexScrape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/submissions/CIK0000320193.json":
			_, _ = w.Write([]byte(submissionsFixture))
		case "/Archives/edgar/data/320193/000032019324000123/":
			_, _ = w.Write([]byte(`<html><body>
				<a href="/Archives/edgar/data/320193/000032019324000123/0000320193-24-000123-index.htm">index</a>
				<a href="aapl-20240928x10k.htm">10-K</a>
			</body></html>`))
		case "/Archives/edgar/data/320193/000032019324000123/aapl-20240928x10k.htm":
			_, _ = w.Write([]byte("scraped filing body"))
		default:
			http.NotFound(w, r)
		}
	})

	filing, err := client.Fetch(context.Background(), "320193", "10-K")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if filing.RawText != "scraped filing body" {
		t.Fatalf("raw text = %q", filing.RawText)
	}
	if !strings.HasSuffix(filing.SourceURL, "/aapl-20240928x10k.htm") {
		t.Fatalf("source url = %q, want the scraped document", filing.SourceURL)
	}
}

func TestFetchFallsBackToFlatDocumentName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/submissions/CIK0000320193.json":
			_, _ = w.Write([]byte(submissionsFixture))
		case "/Archives/edgar/data/320193/000032019324000123/000032019324000123.htm":
			_, _ = w.Write([]byte("flat document body"))
		default:
			http.NotFound(w, r)
		}
	})

	filing, err := client.Fetch(context.Background(), "320193", "10-K")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if filing.RawText != "flat document body" {
		t.Fatalf("raw text = %q", filing.RawText)
	}
	if !strings.HasSuffix(filing.SourceURL, "/000032019324000123.htm") {
		t.Fatalf("source url = %q", filing.SourceURL)
	}
}

func TestFetchUnknownTicker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/company_tickers.json" {
			_, _ = w.Write([]byte(tickersFixture))
			return
		}
		http.NotFound(w, r)
	})

	_, err := client.Fetch(context.Background(), "NOPE", "10-K")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !domain.IsKind(err, domain.ErrFilingNotFound) {
		t.Fatalf("error = %v, want filing-not-found kind", err)
	}
}

func TestFetchNoMatchingForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/submissions/CIK0000320193.json" {
			_, _ = w.Write([]byte(submissionsFixture))
			return
		}
		http.NotFound(w, r)
	})

	_, err := client.Fetch(context.Background(), "320193", "20-F")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !domain.IsKind(err, domain.ErrFilingNotFound) {
		t.Fatalf("error = %v, want filing-not-found kind", err)
	}
}

func TestFetchRejectsEmptyIdentifier(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.Fetch(context.Background(), "  ", "10-K")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid-input kind", err)
	}
}

func TestFetchServerErrorIsTemporary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "EDGAR overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Fetch(context.Background(), "320193", "10-K")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("error = %v, want temporary kind", err)
	}
	if !strings.Contains(err.Error(), "EDGAR overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestCleanTextExtractsFirstDocumentBlock(t *testing.T) {
	client := &Client{}

	raw := "SGML header noise\n<DOCUMENT>\nprimary filing\n</DOCUMENT>\n<DOCUMENT>exhibit 21</DOCUMENT>"
	got := client.CleanText(raw)
	if strings.Contains(got, "exhibit 21") || strings.Contains(got, "SGML header") {
		t.Fatalf("CleanText() = %q", got)
	}
	if !strings.Contains(got, "primary filing") {
		t.Fatalf("CleanText() = %q", got)
	}

	plain := "<html>already a single document</html>"
	if client.CleanText(plain) != plain {
		t.Fatal("documents without blocks must pass through unchanged")
	}
}
