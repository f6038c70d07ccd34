// Package ollama adapts a local Ollama server to the tone-classification,
// narrative-generation and embedding ports.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds a client for one Ollama server. A nil executor disables retry
// and circuit breaking.
func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// ClassifyTone runs the tone prompt in JSON mode and returns the model's
// raw response for the caller to parse.
func (c *Client) ClassifyTone(ctx context.Context, text string) (string, error) {
	return c.generateJSON(ctx, buildTonePrompt(text))
}

// Narrator writes the report summary through the generation model.
type Narrator struct {
	client *Client
}

func NewNarrator(client *Client) *Narrator {
	return &Narrator{client: client}
}

func (n *Narrator) Generate(ctx context.Context, nc domain.NarrativeContext) (string, error) {
	return n.client.generateText(ctx, buildNarrativePrompt(nc))
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "ollama.embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "ollama.generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
