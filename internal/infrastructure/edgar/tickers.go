package edgar

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// tickerEntry is one row of EDGAR's company_tickers.json, which maps
// arbitrary numeric keys to listed companies.
type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// resolveCIK turns a ticker or CIK string into a zero-padded CIK. Digits
// are taken as a CIK directly; anything else goes through the ticker table.
func (c *Client) resolveCIK(ctx context.Context, identifier string) (string, error) {
	if isAllDigits(identifier) {
		return domain.NormalizeCIK(identifier), nil
	}

	tickers, err := c.loadTickers(ctx)
	if err != nil {
		return "", err
	}
	entry, ok := tickers[strings.ToUpper(identifier)]
	if !ok {
		return "", domain.WrapError(domain.ErrFilingNotFound, "resolve ticker",
			fmt.Errorf("ticker %q is not in the EDGAR company list", identifier))
	}
	return domain.NormalizeCIK(strconv.Itoa(entry.CIK)), nil
}

// loadTickers fetches and caches the full ticker table. The table runs to a
// few megabytes and changes rarely, so one fetch per process is enough.
func (c *Client) loadTickers(ctx context.Context) (map[string]tickerEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickers != nil {
		return c.tickers, nil
	}

	var raw map[string]tickerEntry
	url := c.archiveBase + "/files/company_tickers.json"
	if err := c.getJSON(ctx, url, &raw, "edgar.tickers"); err != nil {
		return nil, err
	}

	byTicker := make(map[string]tickerEntry, len(raw))
	for _, entry := range raw {
		byTicker[strings.ToUpper(entry.Ticker)] = entry
	}
	c.tickers = byTicker
	return byTicker, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
