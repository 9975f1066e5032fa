// Package reranker provides the cross-encoder reranking adapter.
// It implements ports.Reranker against an HTTP reranking service (for
// example a text-embeddings-inference instance serving
// cross-encoder/ms-marco-MiniLM-L-6-v2).
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// Adapter scores (query, candidate) pairs with a cross-encoder service.
type Adapter struct {
	baseURL string
	client  *http.Client
}

// NewAdapter creates a reranker adapter for the given service base URL.
func NewAdapter(baseURL string) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// rerankRequest is the rerank API request format.
type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// rerankScore is one element of the rerank API response.
type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rerank scores every candidate against the query in one call and returns the
// top n by descending score. Ties keep the original retrieval order, so the
// result is deterministic for identical inputs.
func (a *Adapter) Rerank(ctx context.Context, query string, candidates []entities.RetrievedChunk, n int) ([]entities.RetrievedChunk, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Content
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling rerank service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank service returned status %d", resp.StatusCode)
	}

	var scores []rerankScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	// Re-key scores by candidate position so the stable sort below breaks
	// ties by original retrieval order, whatever order the service replied in.
	rescored := make([]entities.RetrievedChunk, len(candidates))
	seen := make([]bool, len(candidates))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank service returned out-of-range index %d", s.Index)
		}
		rescored[s.Index] = entities.RetrievedChunk{Chunk: candidates[s.Index].Chunk, Score: s.Score}
		seen[s.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank service returned no score for candidate %d", i)
		}
	}

	sort.SliceStable(rescored, func(i, j int) bool {
		return rescored[i].Score > rescored[j].Score
	})

	if n > 0 && len(rescored) > n {
		rescored = rescored[:n]
	}
	return rescored, nil
}
