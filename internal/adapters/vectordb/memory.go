// Package vectordb provides the vector store adapter.
// The corpus is small and static, so an in-memory cosine index is sufficient:
// bulk-loaded once at startup, read-only afterwards.
package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// InMemoryStore implements ports.VectorStore with exact cosine-similarity
// search. Concurrent searches share the read lock; writes only happen during
// the startup build.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks []entities.Chunk
}

// NewInMemoryStore creates an empty in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Store inserts chunks with their embeddings.
func (s *InMemoryStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Len returns the number of indexed chunks.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Search returns the topK chunks most similar to the query embedding,
// ordered by decreasing cosine similarity.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]entities.RetrievedChunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		results = append(results, entities.RetrievedChunk{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
