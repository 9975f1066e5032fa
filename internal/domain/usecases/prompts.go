package usecases

import (
	"fmt"
	"strings"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
	"github.com/csadvisor/advisor-go/internal/domain/ports"
)

// FallbackAnswer is the defined response for questions the knowledge base
// cannot ground. It is returned verbatim when retrieval comes back empty and
// is the phrase the generator is instructed to use when context is missing.
const FallbackAnswer = "I cannot find that information in the advising documents available to me."

// advisorSystemPrompt establishes the persona, the grounding rule, and the
// formatting rules for answer generation.
const advisorSystemPrompt = `You are a formal, expert academic advisor for the University of Wisconsin-Madison's Computer Sciences department.
Your tone is professional, helpful, and precise.

Rules:
- Answer using ONLY the information in the provided context. Do not use outside knowledge.
- If the answer is not in the provided context, reply exactly: "` + FallbackAnswer + `"
- Do not repeat the question or use a question-and-answer format.
- When listing multiple items, such as courses, use a Markdown bulleted list.
- Use **bold** for key terms such as course codes, GPA thresholds, and credit counts.
- Stop after answering. Do not invent further questions or continue the conversation.`

// rewriteSystemPrompt instructs the model to produce a standalone query.
// It must reformulate only, never answer.
const rewriteSystemPrompt = `Given a conversation history and a follow-up question, rewrite the follow-up question into a standalone question that can be understood without the history.

Rules:
- Resolve pronouns and back-references ("it", "that", "what about...") using the history.
- If the question is already standalone, return it unchanged.
- Do NOT answer the question. Return only the rewritten question, with no preamble.`

// buildGenerationMessages assembles the chat messages for answer generation:
// truncated history first, then the standalone question with its context
// block. When the history exceeds the cap, the oldest turns are dropped;
// context chunks are never dropped.
func buildGenerationMessages(standalone string, chunks []entities.RetrievedChunk, history []entities.Turn, maxHistoryTurns int) []ports.Message {
	if maxHistoryTurns > 0 && len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	msgs := make([]ports.Message, 0, len(history)+1)
	for _, turn := range history {
		msgs = append(msgs, ports.Message{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, ports.Message{
		Role:    entities.RoleUser,
		Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock(chunks), standalone),
	})
	return msgs
}

// contextBlock renders retrieved chunks with their source identifiers.
func contextBlock(chunks []entities.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, rc := range chunks {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", rc.Chunk.SourceID, rc.Chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

// historyTranscript renders turns for the rewrite prompt.
func historyTranscript(history []entities.Turn) string {
	var sb strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case entities.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
