package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

func TestClassifyToneBuildsPromptInJSONMode(t *testing.T) {
	var capturedPrompt string
	var capturedFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		capturedFormat, _ = payload["format"].(string)
		_, _ = w.Write([]byte(`{"response":"{\"tone\": \"negative\", \"confidence\": 0.91}"}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", nil)
	raw, err := client.ClassifyTone(context.Background(), "Demand weakened across all segments.")
	if err != nil {
		t.Fatalf("ClassifyTone() error = %v", err)
	}
	if !strings.Contains(raw, `"negative"`) {
		t.Fatalf("raw response = %q", raw)
	}
	if capturedFormat != "json" {
		t.Fatalf("format = %q, want json", capturedFormat)
	}
	if !strings.Contains(capturedPrompt, "Demand weakened across all segments.") {
		t.Fatalf("prompt missing passage: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, `"negative"`) {
		t.Fatalf("prompt missing tone vocabulary: %s", capturedPrompt)
	}
}

func TestClassifyToneTruncatesLongPassages(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{}"}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", nil)
	passage := strings.Repeat("risk ", 2000)
	if _, err := client.ClassifyTone(context.Background(), passage); err != nil {
		t.Fatalf("ClassifyTone() error = %v", err)
	}
	if len(capturedPrompt) > len(passage) {
		t.Fatalf("prompt length %d suggests the passage was not truncated", len(capturedPrompt))
	}
}

func TestNarratorBuildsFactSheet(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"  The filing reads cautious overall.  "}`))
	}))
	defer server.Close()

	narrator := NewNarrator(New(server.URL, "gen", "embed", nil))
	text, err := narrator.Generate(context.Background(), domain.NarrativeContext{
		CompanyName: "Apple Inc.",
		CIK:         "0000320193",
		FilingType:  "10-K",
		KeyTone:     domain.ToneNegative,
		TopRisks:    []string{"supply chain concentration"},
		Highlights:  []domain.Metric{{Key: "revenue", Display: "$391,035,000,000"}},
		Comparables: []domain.Comparable{{Name: "Dell Technologies", Score: 0.8}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "The filing reads cautious overall." {
		t.Fatalf("text = %q, want the trimmed model response", text)
	}

	for _, want := range []string{
		"Apple Inc.",
		"negative",
		"supply chain concentration",
		"$391,035,000,000",
		"Dell Technologies",
	} {
		if !strings.Contains(capturedPrompt, want) {
			t.Fatalf("prompt missing %q: %s", want, capturedPrompt)
		}
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed", nil))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("error = %v, want temporary kind for a retryable status", err)
	}
}

func TestEmbedSkipsEmptyInput(t *testing.T) {
	embedder := NewEmbedder(New("http://127.0.0.1:1", "gen", "embed", nil))
	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("Embed(nil) = %v, %v, want nil, nil", vectors, err)
	}
}
