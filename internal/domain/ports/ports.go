// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, not concrete implementations;
// adapters implement them.
package ports

import (
	"context"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text. The same
// implementation must be used for indexing and for query embedding.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Message is one element of a chat completion request.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// CompletionRequest is the input to a generative model call.
type CompletionRequest struct {
	System   string
	Messages []Message
}

// ChatModel generates text from a generative language model. Sampling
// parameters (temperature, max tokens) are fixed per adapter instance.
type ChatModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Reranker re-scores retrieval candidates with a cross-encoder relevance
// model and keeps the top n by descending score. Output is always a subset of
// the candidates; ties preserve the original retrieval order.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []entities.RetrievedChunk, n int) ([]entities.RetrievedChunk, error)
}

// VectorStore holds the embedded chunk corpus. It is bulk-loaded once at
// startup and read-only afterwards; Search must be safe for concurrent use.
type VectorStore interface {
	// Store inserts chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search returns the topK chunks most similar to the query embedding,
	// ordered by decreasing similarity.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.RetrievedChunk, error)
}

// SessionStore is the append-only conversation log. It is the single source
// of truth for conversation state and the only shared mutable resource in the
// pipeline.
type SessionStore interface {
	// History returns the session's turns in insertion order. An unknown
	// session id yields an empty slice, not an error.
	History(ctx context.Context, sessionID string) ([]entities.Turn, error)

	// Append adds one turn to the session, creating the session record on
	// first use.
	Append(ctx context.Context, sessionID string, turn entities.Turn) error
}

// KnowledgeSource provides the finite, static record collection the index is
// built from.
type KnowledgeSource interface {
	Records() ([]entities.Record, error)
}
