// Package finbert adapts a FinBERT-style sentiment service to the tone
// port. The service scores financial text as positive, negative or neutral
// over a small JSON API.
package finbert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/resilience"
)

// maxPassageBytes caps the request payload. The model truncates to its own
// context window anyway, so longer submissions only waste transfer.
const maxPassageBytes = 4000

type Classifier struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds a classifier for one scoring service. A nil executor disables
// retry and circuit breaking.
func New(baseURL string, executor *resilience.Executor) *Classifier {
	return &Classifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores"`
}

func (c *Classifier) Classify(ctx context.Context, text string) (domain.Tone, error) {
	if len(text) > maxPassageBytes {
		text = text[:maxPassageBytes]
	}

	var response classifyResponse
	if err := c.postJSON(ctx, "/classify", classifyRequest{Text: text}, &response, "finbert.classify"); err != nil {
		return "", err
	}

	label := response.Label
	if label == "" {
		label = topScore(response.Scores)
	}
	return domain.ParseTone(label)
}

// topScore picks the highest-scoring label when the service omits the
// argmax field. Ties break lexicographically so results stay stable.
func topScore(scores map[string]float64) string {
	best := ""
	bestScore := math.Inf(-1)
	for label, score := range scores {
		if score > bestScore || (score == bestScore && label < best) {
			best = label
			bestScore = score
		}
	}
	return best
}

func (c *Classifier) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return newHTTPStatusError(operation, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyFinbertError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}
