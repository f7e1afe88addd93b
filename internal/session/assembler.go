package session

import (
	"strings"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// assembler accumulates streamed completion events into a single assistant
// message. Content deltas and function-call argument deltas are appended in
// arrival order; the function name arrives on the first function delta.
type assembler struct {
	role         string
	content      strings.Builder
	fnName       string
	fnArgs       strings.Builder
	finishReason string
}

func (a *assembler) consume(ev domain.CompletionEvent) {
	if ev.Role != "" {
		a.role = ev.Role
	}
	if ev.ContentDelta != "" {
		a.content.WriteString(ev.ContentDelta)
	}
	if ev.FunctionDelta != nil {
		if ev.FunctionDelta.Name != "" {
			a.fnName = ev.FunctionDelta.Name
		}
		if ev.FunctionDelta.Arguments != "" {
			a.fnArgs.WriteString(ev.FunctionDelta.Arguments)
		}
	}
	if ev.FinishReason != "" {
		a.finishReason = ev.FinishReason
	}
}

// hasFunctionCall reports whether a complete tool invocation was assembled.
func (a *assembler) hasFunctionCall() bool {
	return a.fnName != ""
}

// message materializes the assembled assistant message under the given id.
func (a *assembler) message(id string) domain.Message {
	role := a.role
	if role == "" {
		role = "assistant"
	}

	msg := domain.Message{
		ID:      id,
		Role:    role,
		Content: a.content.String(),
	}

	if a.fnName != "" {
		msg.FunctionCall = &domain.FunctionCall{
			Name:      a.fnName,
			Arguments: a.fnArgs.String(),
		}
	}

	return msg
}
