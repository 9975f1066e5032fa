// Package llm provides the generative model adapter.
// It implements ports.ChatModel against any OpenAI-compatible chat
// completions endpoint (the original deployment used Together AI, which
// speaks this protocol).
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
	"github.com/csadvisor/advisor-go/internal/domain/ports"
)

// Adapter calls an OpenAI-compatible chat completions API. Sampling
// parameters are fixed at construction; a low temperature keeps answers
// factual.
type Adapter struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewAdapter creates a chat model adapter. baseURL may be empty for the
// default OpenAI endpoint.
func NewAdapter(baseURL, apiKey, model string, temperature float64, maxTokens int) *Adapter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Adapter{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
	}
}

// Complete generates a response for the given system instruction and
// conversation messages.
func (a *Adapter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case entities.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    messages,
		Temperature: openai.Float(a.temperature),
		MaxTokens:   openai.Int(a.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("calling chat completions API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completions API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
