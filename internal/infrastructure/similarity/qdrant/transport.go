package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type point struct {
	ID      string         `json:"id"`
	Vector  namedVectors   `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type namedVectors struct {
	Dense  []float32    `json:"dense"`
	Sparse sparseVector `json:"sparse"`
}

type scoredPoint struct {
	id      string
	score   float64
	payload map[string]any
}

// ensureCollection creates the collection with a named dense vector and a
// named sparse vector. A conflict means another writer created it first;
// both outcomes mark it ensured for the given vector size.
func (x *Index) ensureCollection(ctx context.Context, vectorSize int) error {
	x.ensureMu.Lock()
	defer x.ensureMu.Unlock()
	if x.ensuredCollection && x.ensuredVectorSize == vectorSize {
		return nil
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			"dense": map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			"sparse": map[string]any{},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", x.baseURL, x.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant create collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("qdrant create collection status: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	x.ensuredCollection = true
	x.ensuredVectorSize = vectorSize
	return nil
}

func (x *Index) upsertPoints(ctx context.Context, points []point) error {
	reqBody := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", x.baseURL, x.collection)
	return x.do(ctx, http.MethodPut, url, reqBody, nil, "upsert points")
}

func (x *Index) searchDense(ctx context.Context, vector []float32, limit int) ([]scoredPoint, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   "dense",
			"vector": vector,
		},
		"limit":        limit,
		"with_payload": true,
	}
	return x.search(ctx, reqBody, "dense search")
}

func (x *Index) searchSparse(ctx context.Context, vector sparseVector, limit int) ([]scoredPoint, error) {
	if len(vector.Indices) == 0 {
		return nil, nil
	}
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   "sparse",
			"vector": vector,
		},
		"limit":        limit,
		"with_payload": true,
	}
	return x.search(ctx, reqBody, "sparse search")
}

func (x *Index) search(ctx context.Context, reqBody map[string]any, operation string) ([]scoredPoint, error) {
	var response struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", x.baseURL, x.collection)
	if err := x.do(ctx, http.MethodPost, url, reqBody, &response, operation); err != nil {
		return nil, err
	}

	points := make([]scoredPoint, 0, len(response.Result))
	for _, result := range response.Result {
		points = append(points, scoredPoint{
			id:      fmt.Sprintf("%v", result.ID),
			score:   result.Score,
			payload: result.Payload,
		})
	}
	return points, nil
}

func (x *Index) do(ctx context.Context, method, url string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		if msg := readErrorBody(resp.Body); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
