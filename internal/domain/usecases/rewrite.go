package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
	"github.com/csadvisor/advisor-go/internal/domain/ports"
)

// Rewriter turns a follow-up question into a standalone query using the
// conversation history.
type Rewriter struct {
	chat ports.ChatModel
}

// NewRewriter creates a Rewriter backed by the given chat model.
func NewRewriter(chat ports.ChatModel) *Rewriter {
	return &Rewriter{chat: chat}
}

// Rewrite produces a history-independent version of question. With empty
// history the question is already standalone and the model call is skipped.
// A failed or empty rewrite falls back to the raw question.
func (r *Rewriter) Rewrite(ctx context.Context, history []entities.Turn, question string) string {
	if len(history) == 0 {
		return question
	}

	prompt := fmt.Sprintf("Conversation history:\n%s\nFollow-up question: %s\n\nStandalone question:",
		historyTranscript(history), question)

	out, err := r.chat.Complete(ctx, ports.CompletionRequest{
		System:   rewriteSystemPrompt,
		Messages: []ports.Message{{Role: entities.RoleUser, Content: prompt}},
	})
	if err != nil {
		log.Warn().Err(err).Msg("query rewrite failed, using raw question")
		return question
	}

	out = strings.Trim(strings.TrimSpace(out), `"`)
	if out == "" {
		return question
	}
	return out
}
