package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
	"github.com/csadvisor/advisor-go/internal/domain/ports"
)

// Retrieval defaults. k bounds the vector search, n the reranked context
// passed to the generator, and the history cap bounds the generation prompt.
const (
	DefaultTopK            = 15
	DefaultTopN            = 4
	DefaultMaxHistoryTurns = 12
)

// AskUseCase runs the conversational retrieval pipeline for one request:
// history lookup, query rewrite, vector search, rerank, grounded generation,
// history append. It holds no per-request state; one instance is constructed
// at startup and shared by all concurrent requests.
type AskUseCase struct {
	sessions ports.SessionStore
	rewriter *Rewriter
	embedder ports.EmbeddingService
	store    ports.VectorStore
	reranker ports.Reranker
	chat     ports.ChatModel

	topK            int
	topN            int
	maxHistoryTurns int
}

// NewAskUseCase creates an AskUseCase with injected dependencies.
// Non-positive tuning values fall back to the defaults.
func NewAskUseCase(
	sessions ports.SessionStore,
	rewriter *Rewriter,
	embedder ports.EmbeddingService,
	store ports.VectorStore,
	reranker ports.Reranker,
	chat ports.ChatModel,
	topK, topN, maxHistoryTurns int,
) *AskUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = DefaultMaxHistoryTurns
	}
	return &AskUseCase{
		sessions:        sessions,
		rewriter:        rewriter,
		embedder:        embedder,
		store:           store,
		reranker:        reranker,
		chat:            chat,
		topK:            topK,
		topN:            topN,
		maxHistoryTurns: maxHistoryTurns,
	}
}

// Ask answers one question in the context of its session. History is written
// only after an answer has been produced, so a mid-pipeline failure leaves the
// session log untouched. A failed history write is logged but does not discard
// the answer from the caller's perspective.
func (uc *AskUseCase) Ask(ctx context.Context, req entities.AskRequest) (*entities.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history, err := uc.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}

	standalone := uc.rewriter.Rewrite(ctx, history, question)
	if standalone != question {
		log.Debug().Str("session", sessionID).Str("standalone", standalone).Msg("query rewritten")
	}

	answer, err := uc.answer(ctx, standalone, history)
	if err != nil {
		return nil, err
	}

	uc.persist(ctx, sessionID, question, answer)

	return &entities.AskResponse{Answer: answer, SessionID: sessionID}, nil
}

// answer retrieves context for the standalone query and generates a grounded
// response. An empty candidate set is not an error; it yields the defined
// fallback answer without a generation call.
func (uc *AskUseCase) answer(ctx context.Context, standalone string, history []entities.Turn) (string, error) {
	embedding, err := uc.embedder.Embed(ctx, standalone)
	if err != nil {
		return "", &UpstreamError{Op: "embedding query", Err: err}
	}

	candidates, err := uc.store.Search(ctx, embedding, uc.topK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}
	if len(candidates) == 0 {
		return FallbackAnswer, nil
	}

	top, err := uc.reranker.Rerank(ctx, standalone, candidates, uc.topN)
	if err != nil {
		return "", &UpstreamError{Op: "reranking candidates", Err: err}
	}

	msgs := buildGenerationMessages(standalone, top, history, uc.maxHistoryTurns)
	answer, err := uc.chat.Complete(ctx, ports.CompletionRequest{
		System:   advisorSystemPrompt,
		Messages: msgs,
	})
	if err != nil {
		return "", &UpstreamError{Op: "generating answer", Err: err}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return FallbackAnswer, nil
	}
	return answer, nil
}

// persist appends the user and assistant turns. If the user turn fails the
// assistant turn is skipped so the log never holds an answer without its
// question.
func (uc *AskUseCase) persist(ctx context.Context, sessionID, question, answer string) {
	now := time.Now()
	if err := uc.sessions.Append(ctx, sessionID, entities.Turn{Role: entities.RoleUser, Content: question, CreatedAt: now}); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to append user turn")
		return
	}
	if err := uc.sessions.Append(ctx, sessionID, entities.Turn{Role: entities.RoleAssistant, Content: answer, CreatedAt: now}); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to append assistant turn")
	}
}
