package usecases

import (
	"context"
	"errors"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
	"github.com/csadvisor/advisor-go/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing.
type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

// mockVectorStore implements ports.VectorStore for testing.
type mockVectorStore struct {
	stored    []entities.Chunk
	results   []entities.RetrievedChunk
	storeErr  error
	searchErr error
}

func (m *mockVectorStore) Store(_ context.Context, chunks []entities.Chunk) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.stored = append(m.stored, chunks...)
	return nil
}

func (m *mockVectorStore) Search(_ context.Context, _ []float32, topK int) ([]entities.RetrievedChunk, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.results) > topK {
		return m.results[:topK], nil
	}
	return m.results, nil
}

// mockReranker implements ports.Reranker for testing.
type mockReranker struct {
	err error
}

func (m *mockReranker) Rerank(_ context.Context, _ string, candidates []entities.RetrievedChunk, n int) ([]entities.RetrievedChunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// mockChat implements ports.ChatModel for testing. It records every request
// and answers from the response queue, repeating the last entry.
type mockChat struct {
	responses []string
	err       error
	requests  []ports.CompletionRequest
}

func (m *mockChat) Complete(_ context.Context, req ports.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "mocked answer", nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// mockSessions implements ports.SessionStore for testing.
type mockSessions struct {
	turns      map[string][]entities.Turn
	historyErr error
	appendErr  error
}

func newMockSessions() *mockSessions {
	return &mockSessions{turns: map[string][]entities.Turn{}}
}

func (m *mockSessions) History(_ context.Context, sessionID string) ([]entities.Turn, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.turns[sessionID], nil
}

func (m *mockSessions) Append(_ context.Context, sessionID string, turn entities.Turn) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return nil
}

// mockKnowledge implements ports.KnowledgeSource for testing.
type mockKnowledge struct {
	records []entities.Record
	err     error
}

func (m *mockKnowledge) Records() ([]entities.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

var errBoom = errors.New("boom")
