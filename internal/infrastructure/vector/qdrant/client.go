// Package qdrant talks to a Qdrant instance over HTTP. The collection keeps
// two named vectors per point — "dense" (512-dim cosine) and "sparse"
// (term-weighted) — so the retriever can query each representation
// independently and fuse the ranked lists itself.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/answerforge/rfp-engine/internal/core/domain"
	"github.com/answerforge/rfp-engine/internal/core/ports"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"

	defaultTimeout = 60 * time.Second
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  bool
}

func New(baseURL, collection string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection lazily creates the collection with both vector configs.
// The creation call runs at most once per process; an already-existing
// collection (409) counts as success.
func (c *Client) EnsureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensured {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     domain.DenseVectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	resp, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", c.collection), reqBody)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		c.markEnsured()
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant ensure collection status: %s", statusWithBody(resp))
	}
	c.markEnsured()
	return nil
}

func (c *Client) markEnsured() {
	c.ensureMu.Lock()
	c.ensured = true
	c.ensureMu.Unlock()
}

// Upsert writes the whole batch in one call with wait=true. Re-upserting an
// id overwrites the stored point; Qdrant makes no partial-commit guarantee
// when the call fails.
func (c *Client) Upsert(ctx context.Context, points []ports.StoredPoint) error {
	if len(points) == 0 {
		return nil
	}

	type upsertPoint struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	body := make([]upsertPoint, 0, len(points))
	for _, p := range points {
		body = append(body, upsertPoint{
			ID: p.ID,
			Vector: map[string]any{
				denseVectorName: p.Dense,
				sparseVectorName: map[string]any{
					"indices": p.Sparse.Indices,
					"values":  p.Sparse.Values,
				},
			},
			Payload: map[string]any{
				"question":    p.Record.Question,
				"answer":      p.Record.Answer,
				"summary":     p.Record.Summary,
				"answer_type": p.Record.AnswerType,
				"date":        p.Record.Date,
			},
		})
	}

	resp, err := c.doJSON(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", c.collection),
		map[string]any{"points": body},
	)
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", statusWithBody(resp))
	}
	return nil
}

// QueryDense runs a top-K similarity query over the dense vector.
func (c *Client) QueryDense(ctx context.Context, vector []float32, topK int) ([]domain.RetrievedResult, error) {
	return c.query(ctx, denseVectorName, vector, topK)
}

// QuerySparse runs a top-K similarity query over the sparse vector.
func (c *Client) QuerySparse(ctx context.Context, vector domain.SparseVector, topK int) ([]domain.RetrievedResult, error) {
	return c.query(ctx, sparseVectorName, map[string]any{
		"indices": vector.Indices,
		"values":  vector.Values,
	}, topK)
}

func (c *Client) query(ctx context.Context, using string, queryVector any, topK int) ([]domain.RetrievedResult, error) {
	reqBody := map[string]any{
		"query":        queryVector,
		"using":        using,
		"limit":        topK,
		"with_payload": true,
	}

	resp, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/query", c.collection), reqBody)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s query: %w", using, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant %s query status: %s", using, statusWithBody(resp))
	}

	var queryResp struct {
		Result struct {
			Points []struct {
				ID      any            `json:"id"`
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode %s query response: %w", using, err)
	}

	out := make([]domain.RetrievedResult, 0, len(queryResp.Result.Points))
	for _, p := range queryResp.Result.Points {
		id := pointIDString(p.ID)
		out = append(out, domain.RetrievedResult{
			ID:    id,
			Score: p.Score,
			Payload: domain.Record{
				ID:         id,
				Question:   stringPayload(p.Payload, "question"),
				Answer:     stringPayload(p.Payload, "answer"),
				Summary:    stringPayload(p.Payload, "summary"),
				AnswerType: stringPayload(p.Payload, "answer_type"),
				Date:       stringPayload(p.Payload, "date"),
			},
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return resp, nil
}

func statusWithBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Sprintf("%s: %s", resp.Status, msg)
	}
	return resp.Status
}

func pointIDString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		return fmt.Sprintf("%.0f", tv)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func stringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
