package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/VariableVic/medusa-ai-assistant/internal/completion"
	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// CompletionHandler serves the order-returns completion endpoint.
type CompletionHandler struct {
	completions *completion.Service
	logger      *slog.Logger
}

// NewCompletionHandler creates the handler for POST /admin/completion/order-returns.
func NewCompletionHandler(completions *completion.Service, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{completions: completions, logger: logger}
}

// orderReturnsRequest is the request body: the conversation so far plus the
// order snapshot the conversation is grounded in.
type orderReturnsRequest struct {
	Messages        []domain.Message        `json:"messages"`
	Items           []domain.LineItem       `json:"items"`
	Customer        domain.Customer         `json:"customer"`
	ReturnReasons   []domain.ReturnReason   `json:"return_reasons"`
	ShippingOptions []domain.ShippingOption `json:"shipping_options"`
	CurrencyCode    string                  `json:"currency_code"`
}

// HandleOrderReturns streams completion chunks for a return-assistant turn.
func (h *CompletionHandler) HandleOrderReturns(w http.ResponseWriter, r *http.Request) {
	var req orderReturnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Messages) == 0 {
		http.Error(w, "messages must not be empty", http.StatusBadRequest)
		return
	}

	orderCtx := &domain.OrderContext{
		Items:           req.Items,
		Customer:        req.Customer,
		ReturnReasons:   req.ReturnReasons,
		ShippingOptions: req.ShippingOptions,
		CurrencyCode:    req.CurrencyCode,
	}

	events, err := h.completions.CreateCompletion(r.Context(), req.Messages, orderCtx)
	if err != nil {
		AddError(r.Context(), err)
		h.writeError(w, err)
		return
	}

	h.stream(w, r, events)
}

// writeError maps a turn-aborting error onto an HTTP response. The
// conversation state lives with the caller and is untouched, so the
// operator can simply retry.
func (h *CompletionHandler) writeError(w http.ResponseWriter, err error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.HTTPStatusCode())
		json.NewEncoder(w).Encode(map[string]any{"error": apiErr})
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}

func (h *CompletionHandler) stream(w http.ResponseWriter, r *http.Request, events <-chan domain.CompletionEvent) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := "chatcmpl-" + uuid.New().String()
	created := time.Now().Unix()

	for event := range events {
		if event.Error != nil {
			// The stream is already committed; log and end it. The client
			// sees a truncated turn and surfaces a generic failure.
			AddError(r.Context(), event.Error)
			h.logger.Error("completion stream error",
				slog.String("error", event.Error.Error()))
			break
		}

		chunk := streamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   h.completions.Model(),
			Choices: []streamChoice{{Index: 0}},
		}
		chunk.Choices[0].Delta.Role = event.Role
		chunk.Choices[0].Delta.Content = event.ContentDelta
		if event.FunctionDelta != nil {
			chunk.Choices[0].Delta.FunctionCall = event.FunctionDelta
		}
		if event.FinishReason != "" {
			chunk.Choices[0].FinishReason = &event.FinishReason
		}

		data, err := json.Marshal(chunk)
		if err != nil {
			h.logger.Error("failed to marshal chunk", slog.String("error", err.Error()))
			break
		}

		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// streamChunk is the wire shape of a streamed completion chunk.
type streamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Index int `json:"index"`
	Delta struct {
		Role         string                    `json:"role,omitempty"`
		Content      string                    `json:"content,omitempty"`
		FunctionCall *domain.FunctionCallDelta `json:"function_call,omitempty"`
	} `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}
