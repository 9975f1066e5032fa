package usecases

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/csadvisor/advisor-go/internal/domain/ports"
)

// IndexUseCase builds the searchable chunk corpus: split records, embed every
// chunk, bulk-insert into the vector store. It runs once at startup; the
// retriever must not be used until Build returns nil, so no partial index
// state is ever observable.
type IndexUseCase struct {
	chunker  *Chunker
	embedder ports.EmbeddingService
	store    ports.VectorStore
}

// NewIndexUseCase creates an IndexUseCase with injected dependencies.
func NewIndexUseCase(chunker *Chunker, embedder ports.EmbeddingService, store ports.VectorStore) *IndexUseCase {
	return &IndexUseCase{chunker: chunker, embedder: embedder, store: store}
}

// Build chunks the knowledge source, embeds the chunks, and stores them.
// It returns the number of chunks indexed. Any failure aborts the build.
func (uc *IndexUseCase) Build(ctx context.Context, source ports.KnowledgeSource) (int, error) {
	records, err := source.Records()
	if err != nil {
		return 0, fmt.Errorf("loading knowledge records: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("knowledge source yielded no records")
	}

	chunks, err := uc.chunker.Split(records)
	if err != nil {
		return 0, fmt.Errorf("chunking records: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	if err := uc.store.Store(ctx, chunks); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}

	log.Info().
		Int("records", len(records)).
		Int("chunks", len(chunks)).
		Msg("search index built")
	return len(chunks), nil
}
