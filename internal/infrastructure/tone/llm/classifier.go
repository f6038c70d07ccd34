// Package llm classifies management tone through a general-purpose language
// model. The model is asked for strict JSON; because local models drift
// under load, decoding falls back to automated repair and then to HJSON's
// lenient reader before giving up.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// ToneModel produces the raw model response for one passage. The LLM
// client's ClassifyTone satisfies it.
type ToneModel interface {
	ClassifyTone(ctx context.Context, text string) (string, error)
}

type Classifier struct {
	model ToneModel
}

func NewClassifier(model ToneModel) *Classifier {
	return &Classifier{model: model}
}

func (c *Classifier) Classify(ctx context.Context, text string) (domain.Tone, error) {
	raw, err := c.model.ClassifyTone(ctx, text)
	if err != nil {
		return "", err
	}

	response, err := decodeToneResponse(raw)
	if err != nil {
		return "", err
	}
	return domain.ParseTone(response.Tone)
}

type toneResponse struct {
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
}

func decodeToneResponse(raw string) (toneResponse, error) {
	snippet := extractJSONObject(raw)

	var response toneResponse
	if err := json.Unmarshal([]byte(snippet), &response); err == nil {
		return response, nil
	}

	if repaired, err := jsonrepair.RepairJSON(snippet); err == nil {
		if err := json.Unmarshal([]byte(repaired), &response); err == nil {
			return response, nil
		}
	}

	if err := hjson.Unmarshal([]byte(snippet), &response); err == nil {
		return response, nil
	}

	return toneResponse{}, fmt.Errorf("parse tone response: %q", clip(raw, 200))
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
