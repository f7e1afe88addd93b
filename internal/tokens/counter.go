// Package tokens provides token counting and conversation budgeting for the
// completion provider's context window.
package tokens

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// Counter counts conversation tokens using tiktoken.
type Counter struct {
	model string

	mu    sync.Mutex
	codec tokenizer.Codec
}

// NewCounter creates a counter for the given model.
func NewCounter(model string) *Counter {
	return &Counter{model: model}
}

func (c *Counter) getCodec() (tokenizer.Codec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.codec != nil {
		return c.codec, nil
	}

	codec, err := tokenizer.ForModel(mapModelName(c.model))
	if err != nil {
		// Fall back to encoding based on model prefix
		codec, err = tokenizer.Get(modelToEncoding(c.model))
		if err != nil {
			return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
		}
	}

	c.codec = codec
	return codec, nil
}

// mapModelName maps a model string to tokenizer.Model.
func mapModelName(model string) tokenizer.Model {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"):
		return tokenizer.GPT4o
	case strings.HasPrefix(model, "gpt-4"):
		return tokenizer.GPT4
	case strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.GPT35Turbo
	default:
		// tokenizer.ForModel handles unknown models
		return tokenizer.Model(model)
	}
}

// modelToEncoding maps model names to encoding names for fallback.
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-5"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.Cl100kBase
	}
}

// CountConversation counts the tokens of a conversation plus the function
// schemas sent alongside it.
//
// Counting convention per the chat completions format: each message costs a
// fixed overhead of 4 tokens plus the encoded length of each populated field,
// minus 1 when a name field is present. Each function definition costs 2
// tokens plus its encoded fields with the same name adjustment, and the
// conversation is primed with 2 trailing tokens.
func (c *Counter) CountConversation(messages []domain.Message, functions []domain.FunctionDef) (int, error) {
	codec, err := c.getCodec()
	if err != nil {
		return 0, err
	}

	total := 0

	for _, msg := range messages {
		total += 4

		n, err := c.encodeLen(codec, msg.Role)
		if err != nil {
			return 0, err
		}
		total += n

		n, err = c.encodeLen(codec, msg.Content)
		if err != nil {
			return 0, err
		}
		total += n

		if msg.Name != "" {
			n, err = c.encodeLen(codec, msg.Name)
			if err != nil {
				return 0, err
			}
			total += n - 1
		}

		if msg.FunctionCall != nil {
			encoded, err := json.Marshal(msg.FunctionCall)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal function call: %w", err)
			}
			n, err = c.encodeLen(codec, string(encoded))
			if err != nil {
				return 0, err
			}
			total += n
		}
	}

	for _, fn := range functions {
		total += 2

		n, err := c.encodeLen(codec, fn.Name)
		if err != nil {
			return 0, err
		}
		total += n - 1

		n, err = c.encodeLen(codec, fn.Description)
		if err != nil {
			return 0, err
		}
		total += n

		if fn.Parameters != nil {
			encoded, err := json.Marshal(fn.Parameters)
			if err != nil {
				return 0, fmt.Errorf("failed to marshal function parameters: %w", err)
			}
			n, err = c.encodeLen(codec, string(encoded))
			if err != nil {
				return 0, err
			}
			total += n
		}
	}

	total += 2

	return total, nil
}

func (c *Counter) encodeLen(codec tokenizer.Codec, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("failed to encode text: %w", err)
	}
	return len(ids), nil
}
