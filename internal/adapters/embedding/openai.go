// Package embedding provides the embedding model adapter.
// It implements ports.EmbeddingService against any OpenAI-compatible
// embeddings endpoint; the model identifier and base URL come from
// configuration.
package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Adapter calls an OpenAI-compatible embeddings API.
type Adapter struct {
	client openai.Client
	model  string
}

// NewAdapter creates an embedding adapter. baseURL may be empty for the
// default OpenAI endpoint.
func NewAdapter(baseURL, apiKey, model string) *Adapter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Adapter{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Embed generates a vector embedding for a single text.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds multiple texts in one API call, preserving input order.
func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(a.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= int64(len(texts)) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}
	return vectors, nil
}
