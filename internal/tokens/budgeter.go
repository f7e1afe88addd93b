package tokens

import (
	"log/slog"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// DefaultBudget is the conversation token budget before a completion request
// is issued.
const DefaultBudget = 3300

// minMessages is the trim floor: the system prompt at index 0 plus the most
// recent turn are always retained.
const minMessages = 2

// Budgeter trims conversation history to fit the model's context budget.
type Budgeter struct {
	counter *Counter
	budget  int
	logger  *slog.Logger
}

// NewBudgeter creates a budgeter. A budget of 0 selects DefaultBudget.
func NewBudgeter(counter *Counter, budget int, logger *slog.Logger) *Budgeter {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Budgeter{
		counter: counter,
		budget:  budget,
		logger:  logger,
	}
}

// Trim removes the oldest non-system messages until the conversation plus the
// function schemas fit the budget, or the floor of two messages is reached.
// Index 0 is reserved for the system prompt and never removed.
//
// If token counting fails the input is returned unchanged: an oversized
// request that the provider may still accept beats a blocked turn.
func (b *Budgeter) Trim(messages []domain.Message, functions []domain.FunctionDef) []domain.Message {
	count, err := b.counter.CountConversation(messages, functions)
	if err != nil {
		b.logger.Error("token counting failed, sending untrimmed conversation",
			slog.String("error", err.Error()))
		return messages
	}

	trimmed := messages
	for count > b.budget && len(trimmed) > minMessages {
		trimmed = append(trimmed[:1:1], trimmed[2:]...)

		count, err = b.counter.CountConversation(trimmed, functions)
		if err != nil {
			b.logger.Error("token counting failed mid-trim, sending untrimmed conversation",
				slog.String("error", err.Error()))
			return messages
		}
	}

	if len(trimmed) < len(messages) {
		b.logger.Info("trimmed conversation to fit token budget",
			slog.Int("removed", len(messages)-len(trimmed)),
			slog.Int("tokens", count),
			slog.Int("budget", b.budget))
	}

	return trimmed
}
