// Package completion implements the chat completion gateway: it assembles
// the conversation sent to the provider (system prompt, token budgeting,
// tool schema) and hands back the provider's event stream.
package completion

import (
	"context"
	"log/slog"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
	"github.com/VariableVic/medusa-ai-assistant/internal/returns"
	"github.com/VariableVic/medusa-ai-assistant/internal/tokens"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-3.5-turbo"

// completionTemperature keeps the model deterministic enough for tool calls.
const completionTemperature = 0.1

// Service is the chat completion gateway.
type Service struct {
	provider domain.Provider
	budgeter *tokens.Budgeter
	model    string
	logger   *slog.Logger
}

// NewService creates a completion gateway.
func NewService(provider domain.Provider, budgeter *tokens.Budgeter, model string, logger *slog.Logger) *Service {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		budgeter: budgeter,
		model:    model,
		logger:   logger,
	}
}

// Model returns the configured completion model.
func (s *Service) Model() string {
	return s.model
}

// CreateCompletion requests a streaming completion for the conversation.
// When no system message is present, one is built from the order context and
// prepended. The conversation is trimmed to the token budget before sending;
// the caller's message slice is never modified.
//
// Provider errors propagate unchanged: the turn is aborted and the caller's
// conversation state stays as it was, so the operator can retry.
func (s *Service) CreateCompletion(ctx context.Context, messages []domain.Message, orderCtx *domain.OrderContext) (<-chan domain.CompletionEvent, error) {
	functions := returns.Functions()

	conversation := messages
	if !hasSystemMessage(conversation) {
		conversation = append([]domain.Message{{
			Role:    "system",
			Content: SystemPrompt(orderCtx),
		}}, conversation...)
	}

	conversation = s.budgeter.Trim(conversation, functions)

	req := &domain.CompletionRequest{
		Model:        s.model,
		Messages:     stripIDs(conversation),
		Stream:       true,
		Temperature:  completionTemperature,
		Functions:    functions,
		FunctionCall: "auto",
	}

	return s.provider.Stream(ctx, req)
}

func hasSystemMessage(messages []domain.Message) bool {
	for _, m := range messages {
		if m.Role == "system" {
			return true
		}
	}
	return false
}

// stripIDs drops client-side message ids before the conversation goes on the
// wire; the provider rejects unknown message fields.
func stripIDs(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	for i, m := range messages {
		m.ID = ""
		out[i] = m
	}
	return out
}
