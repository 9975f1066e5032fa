package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

func retrieved(id, content string, score float64) entities.RetrievedChunk {
	return entities.RetrievedChunk{
		Chunk: entities.Chunk{ID: id, SourceID: "doc", Content: content},
		Score: score,
	}
}

func newAskFixture(store *mockVectorStore, chat *mockChat, sessions *mockSessions) *AskUseCase {
	return NewAskUseCase(
		sessions,
		NewRewriter(chat),
		&mockEmbedder{},
		store,
		&mockReranker{},
		chat,
		15, 4, 12,
	)
}

func TestAskReturnsAnswer(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{
		retrieved("c1", "Declaration requires a 2.250 GPA.", 0.9),
	}}
	chat := &mockChat{responses: []string{"You need a **2.250 GPA** to declare."}}
	sessions := newMockSessions()
	uc := newAskFixture(store, chat, sessions)

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "What GPA do I need?"})
	require.NoError(t, err)

	assert.Equal(t, "You need a **2.250 GPA** to declare.", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
}

func TestAskGeneratesSessionID(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	uc := newAskFixture(store, &mockChat{}, newMockSessions())

	first, err := uc.Ask(context.Background(), entities.AskRequest{Question: "hello"})
	require.NoError(t, err)
	second, err := uc.Ask(context.Background(), entities.AskRequest{Question: "hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, first.SessionID)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestAskEchoesSessionID(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	uc := newAskFixture(store, &mockChat{}, newMockSessions())

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "hello", SessionID: "sess-7"})
	require.NoError(t, err)

	assert.Equal(t, "sess-7", resp.SessionID)
}

func TestAskEmptyQuestion(t *testing.T) {
	uc := newAskFixture(&mockVectorStore{}, &mockChat{}, newMockSessions())

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "   \n "})

	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAskPersistsBothTurns(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	chat := &mockChat{responses: []string{"the answer"}}
	sessions := newMockSessions()
	uc := newAskFixture(store, chat, sessions)

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "a question", SessionID: "s1"})
	require.NoError(t, err)

	turns := sessions.turns["s1"]
	require.Len(t, turns, 2)
	assert.Equal(t, entities.RoleUser, turns[0].Role)
	assert.Equal(t, "a question", turns[0].Content)
	assert.Equal(t, entities.RoleAssistant, turns[1].Role)
	assert.Equal(t, resp.Answer, turns[1].Content)
}

func TestAskAppendFailureStillReturnsAnswer(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	sessions := newMockSessions()
	sessions.appendErr = errBoom
	uc := newAskFixture(store, &mockChat{responses: []string{"the answer"}}, sessions)

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q", SessionID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, "the answer", resp.Answer)
	assert.Empty(t, sessions.turns["s1"])
}

func TestAskHistoryErrorFails(t *testing.T) {
	sessions := newMockSessions()
	sessions.historyErr = errBoom
	uc := newAskFixture(&mockVectorStore{}, &mockChat{}, sessions)

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q", SessionID: "s1"})

	assert.ErrorIs(t, err, errBoom)
}

func TestAskEmptyRetrievalReturnsFallback(t *testing.T) {
	store := &mockVectorStore{results: nil}
	chat := &mockChat{}
	sessions := newMockSessions()
	uc := newAskFixture(store, chat, sessions)

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, FallbackAnswer, resp.Answer)
	// No generation call happened, but the turn is still logged.
	assert.Empty(t, chat.requests)
	require.Len(t, sessions.turns["s1"], 2)
	assert.Equal(t, FallbackAnswer, sessions.turns["s1"][1].Content)
}

func TestAskBlankGenerationReturnsFallback(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	uc := newAskFixture(store, &mockChat{responses: []string{"  \n "}}, newMockSessions())

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q"})
	require.NoError(t, err)

	assert.Equal(t, FallbackAnswer, resp.Answer)
}

func TestAskEmbeddingErrorIsUpstream(t *testing.T) {
	uc := NewAskUseCase(
		newMockSessions(),
		NewRewriter(&mockChat{}),
		&mockEmbedder{err: errBoom},
		&mockVectorStore{},
		&mockReranker{},
		&mockChat{},
		15, 4, 12,
	)

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "embedding query", upstream.Op)
	assert.ErrorIs(t, err, errBoom)
}

func TestAskRerankErrorIsUpstream(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	uc := NewAskUseCase(
		newMockSessions(),
		NewRewriter(&mockChat{}),
		&mockEmbedder{},
		store,
		&mockReranker{err: errBoom},
		&mockChat{},
		15, 4, 12,
	)

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "reranking candidates", upstream.Op)
}

func TestAskGenerationErrorIsUpstream(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	sessions := newMockSessions()
	uc := newAskFixture(store, &mockChat{err: errBoom}, sessions)

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q", SessionID: "s1"})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "generating answer", upstream.Op)
	// A failed turn leaves the session log untouched.
	assert.Empty(t, sessions.turns["s1"])
}

func TestAskSearchErrorIsInternal(t *testing.T) {
	store := &mockVectorStore{searchErr: errBoom}
	uc := newAskFixture(store, &mockChat{}, newMockSessions())

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "q"})

	require.Error(t, err)
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestAskUsesHistoryForRewrite(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	chat := &mockChat{responses: []string{
		"What are the requisites for COMP SCI 400?",
		"COMP SCI 300 with a grade of C or better.",
	}}
	sessions := newMockSessions()
	sessions.turns["s1"] = []entities.Turn{
		{Role: entities.RoleUser, Content: "Tell me about COMP SCI 400"},
		{Role: entities.RoleAssistant, Content: "It is the data structures course."},
	}
	uc := newAskFixture(store, chat, sessions)

	resp, err := uc.Ask(context.Background(), entities.AskRequest{Question: "What are its requisites?", SessionID: "s1"})
	require.NoError(t, err)

	// First model call is the rewrite, second the generation over the
	// rewritten question.
	require.Len(t, chat.requests, 2)
	assert.Contains(t, chat.requests[0].Messages[0].Content, "Follow-up question: What are its requisites?")
	last := chat.requests[1].Messages[len(chat.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "What are the requisites for COMP SCI 400?")
	assert.Equal(t, "COMP SCI 300 with a grade of C or better.", resp.Answer)
}

func TestAskNoRewriteWithoutHistory(t *testing.T) {
	store := &mockVectorStore{results: []entities.RetrievedChunk{retrieved("c1", "context", 0.5)}}
	chat := &mockChat{responses: []string{"an answer"}}
	uc := newAskFixture(store, chat, newMockSessions())

	_, err := uc.Ask(context.Background(), entities.AskRequest{Question: "What is COMP SCI 577?"})
	require.NoError(t, err)

	// A fresh session makes exactly one model call.
	require.Len(t, chat.requests, 1)
}
