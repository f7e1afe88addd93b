package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VariableVic/medusa-ai-assistant/internal/completion"
	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
	"github.com/VariableVic/medusa-ai-assistant/internal/tokens"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptProvider streams scripted events and records the request it saw.
type scriptProvider struct {
	events []domain.CompletionEvent
	err    error
	req    *domain.CompletionRequest
}

func (p *scriptProvider) Name() string {
	return "script"
}

func (p *scriptProvider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.CompletionEvent, error) {
	p.req = req
	if p.err != nil {
		return nil, p.err
	}
	ch := make(chan domain.CompletionEvent, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestHandler(provider domain.Provider) *CompletionHandler {
	counter := tokens.NewCounter(completion.DefaultModel)
	budgeter := tokens.NewBudgeter(counter, 0, nil)
	completions := completion.NewService(provider, budgeter, "", nil)
	return NewCompletionHandler(completions, discardLogger())
}

func requestBody() string {
	return `{
		"messages": [
			{"role": "assistant", "content": "Hello, how can I help you?"},
			{"role": "user", "content": "I want to return my sneakers."}
		],
		"items": [{"id": "li_1", "title": "Sneakers", "quantity": 1, "unit_price": 2000}],
		"customer": {"id": "cus_1"},
		"return_reasons": [{"id": "rr_1", "label": "Wrong size"}],
		"shipping_options": [{"id": "so_1", "name": "Standard Return"}],
		"currency_code": "usd"
	}`
}

// readSSE collects the data payloads of an SSE body up to [DONE].
func readSSE(t *testing.T, body string) []string {
	t.Helper()

	var payloads []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	done := false
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			done = true
			break
		}
		payloads = append(payloads, data)
	}
	if !done {
		t.Fatal("stream not terminated with [DONE]")
	}
	return payloads
}

func TestHandleOrderReturns_StreamsChunks(t *testing.T) {
	provider := &scriptProvider{events: []domain.CompletionEvent{
		{Role: "assistant"},
		{ContentDelta: "Which "},
		{ContentDelta: "items?"},
		{FinishReason: "stop"},
	}}
	handler := newTestHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/admin/completion/order-returns", strings.NewReader(requestBody()))
	rec := httptest.NewRecorder()

	handler.HandleOrderReturns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	payloads := readSSE(t, rec.Body.String())
	if len(payloads) != 4 {
		t.Fatalf("got %d chunks, want 4", len(payloads))
	}

	var content strings.Builder
	var finish string
	for _, p := range payloads {
		var chunk streamChunk
		if err := json.Unmarshal([]byte(p), &chunk); err != nil {
			t.Fatalf("chunk is not valid JSON: %v", err)
		}
		if chunk.Object != "chat.completion.chunk" {
			t.Errorf("object = %q, want chat.completion.chunk", chunk.Object)
		}
		if len(chunk.Choices) != 1 {
			t.Fatalf("chunk has %d choices, want 1", len(chunk.Choices))
		}
		content.WriteString(chunk.Choices[0].Delta.Content)
		if chunk.Choices[0].FinishReason != nil {
			finish = *chunk.Choices[0].FinishReason
		}
	}

	if content.String() != "Which items?" {
		t.Errorf("assembled content = %q", content.String())
	}
	if finish != "stop" {
		t.Errorf("finish reason = %q, want stop", finish)
	}
}

func TestHandleOrderReturns_StreamsFunctionCall(t *testing.T) {
	provider := &scriptProvider{events: []domain.CompletionEvent{
		{Role: "assistant"},
		{FunctionDelta: &domain.FunctionCallDelta{Name: "propose_return"}},
		{FunctionDelta: &domain.FunctionCallDelta{Arguments: `{"items":[]}`}},
		{FinishReason: "function_call"},
	}}
	handler := newTestHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/admin/completion/order-returns", strings.NewReader(requestBody()))
	rec := httptest.NewRecorder()

	handler.HandleOrderReturns(rec, req)

	payloads := readSSE(t, rec.Body.String())

	var name string
	var args strings.Builder
	for _, p := range payloads {
		var chunk streamChunk
		if err := json.Unmarshal([]byte(p), &chunk); err != nil {
			t.Fatalf("chunk is not valid JSON: %v", err)
		}
		if fc := chunk.Choices[0].Delta.FunctionCall; fc != nil {
			if fc.Name != "" {
				name = fc.Name
			}
			args.WriteString(fc.Arguments)
		}
	}

	if name != "propose_return" {
		t.Errorf("function name = %q, want propose_return", name)
	}
	if args.String() != `{"items":[]}` {
		t.Errorf("function arguments = %q", args.String())
	}
}

func TestHandleOrderReturns_BuildsSystemPromptFromBody(t *testing.T) {
	provider := &scriptProvider{events: []domain.CompletionEvent{
		{Role: "assistant"},
		{ContentDelta: "ok"},
		{FinishReason: "stop"},
	}}
	handler := newTestHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/admin/completion/order-returns", strings.NewReader(requestBody()))
	handler.HandleOrderReturns(httptest.NewRecorder(), req)

	if provider.req == nil {
		t.Fatal("provider never called")
	}
	sent := provider.req.Messages
	if sent[0].Role != "system" {
		t.Fatalf("first message role = %s, want system", sent[0].Role)
	}
	if !strings.Contains(sent[0].Content, `"li_1"`) {
		t.Errorf("system prompt does not embed order data: %s", sent[0].Content)
	}
}

func TestHandleOrderReturns_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "empty messages", body: `{"messages": []}`},
		{name: "missing messages", body: `{"items": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(&scriptProvider{})

			req := httptest.NewRequest(http.MethodPost, "/admin/completion/order-returns", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.HandleOrderReturns(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleOrderReturns_ProviderError(t *testing.T) {
	provider := &scriptProvider{err: domain.ErrRateLimit("slow down")}
	handler := newTestHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/admin/completion/order-returns", strings.NewReader(requestBody()))
	rec := httptest.NewRecorder()

	handler.HandleOrderReturns(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	var body struct {
		Error *domain.APIError `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not valid JSON: %v", err)
	}
	if body.Error == nil || body.Error.Type != domain.ErrorTypeRateLimit {
		t.Errorf("error body = %+v", body.Error)
	}
}

func TestHandleOrderReturns_MidStreamErrorEndsStream(t *testing.T) {
	provider := &scriptProvider{events: []domain.CompletionEvent{
		{Role: "assistant"},
		{ContentDelta: "partial"},
		{Error: domain.ErrServer("upstream hiccup")},
	}}
	handler := newTestHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/admin/completion/order-returns", strings.NewReader(requestBody()))
	rec := httptest.NewRecorder()

	handler.HandleOrderReturns(rec, req)

	// The stream was already committed, so the client sees a truncated
	// but well-formed SSE body.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	payloads := readSSE(t, rec.Body.String())
	if len(payloads) != 2 {
		t.Errorf("got %d chunks before termination, want 2", len(payloads))
	}
}
