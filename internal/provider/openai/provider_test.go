package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

func sseHandler(t *testing.T, lines []string, captured **http.Request, body *[]byte) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r
		}
		if body != nil {
			data, _ := io.ReadAll(r.Body)
			*body = data
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}
}

func TestStream_MapsChunksToEvents(t *testing.T) {
	finish := "function_call"
	lines := []string{
		`data: {"choices":[{"delta":{"role":"assistant"},"finish_reason":null}]}`,
		`data: {"choices":[{"delta":{"content":"Sure, "},"finish_reason":null}]}`,
		`data: {"choices":[{"delta":{"function_call":{"name":"propose_return","arguments":"{}"}},"finish_reason":null}]}`,
		fmt.Sprintf(`data: {"choices":[{"delta":{},"finish_reason":%q}]}`, finish),
		`data: [DONE]`,
	}

	srv := httptest.NewServer(sseHandler(t, lines, nil, nil))
	defer srv.Close()

	provider := New("test-key", WithBaseURL(srv.URL))

	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{
		Model:    "gpt-3.5-turbo",
		Messages: []domain.Message{{Role: "user", Content: "Hi"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var collected []domain.CompletionEvent
	for ev := range events {
		if ev.Error != nil {
			t.Fatalf("stream error: %v", ev.Error)
		}
		collected = append(collected, ev)
	}

	if len(collected) != 4 {
		t.Fatalf("got %d events, want 4", len(collected))
	}
	if collected[0].Role != "assistant" {
		t.Errorf("first event role = %q", collected[0].Role)
	}
	if collected[1].ContentDelta != "Sure, " {
		t.Errorf("content delta = %q", collected[1].ContentDelta)
	}
	fd := collected[2].FunctionDelta
	if fd == nil || fd.Name != "propose_return" || fd.Arguments != "{}" {
		t.Errorf("function delta = %+v", fd)
	}
	if collected[3].FinishReason != "function_call" {
		t.Errorf("finish reason = %q", collected[3].FinishReason)
	}
}

func TestStream_UsageEvent(t *testing.T) {
	lines := []string{
		`data: {"choices":[{"delta":{"role":"assistant","content":"Hi"},"finish_reason":null}]}`,
		`data: {"choices":[],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`,
		`data: [DONE]`,
	}

	srv := httptest.NewServer(sseHandler(t, lines, nil, nil))
	defer srv.Close()

	provider := New("test-key", WithBaseURL(srv.URL))
	events, err := provider.Stream(context.Background(), &domain.CompletionRequest{Model: "gpt-3.5-turbo"})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var usage *domain.Usage
	for ev := range events {
		if ev.Usage != nil {
			usage = ev.Usage
		}
	}

	if usage == nil {
		t.Fatal("no usage event")
	}
	if usage.PromptTokens != 10 || usage.CompletionTokens != 2 || usage.TotalTokens != 12 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestStream_RequestWireFormat(t *testing.T) {
	var body []byte
	lines := []string{`data: [DONE]`}

	srv := httptest.NewServer(sseHandler(t, lines, nil, &body))
	defer srv.Close()

	provider := New("test-key", WithBaseURL(srv.URL))

	req := &domain.CompletionRequest{
		Model: "gpt-3.5-turbo",
		Messages: []domain.Message{
			{ID: "local-id", Role: "user", Content: "Hi"},
			{Role: "function", Name: "propose_return", Content: `{"error":"No items provided"}`},
		},
		Stream:      true,
		Temperature: 0.1,
		Functions: []domain.FunctionDef{
			{Name: "propose_return", Description: "Propose a return.", Parameters: map[string]any{"type": "object"}},
		},
		FunctionCall: "auto",
	}

	events, err := provider.Stream(context.Background(), req)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	for range events {
	}

	var wire map[string]json.RawMessage
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("request body is not valid JSON: %v\n%s", err, body)
	}

	for _, key := range []string{"model", "messages", "stream", "temperature", "functions", "function_call"} {
		if _, ok := wire[key]; !ok {
			t.Errorf("request body missing %q: %s", key, body)
		}
	}

	var messages []map[string]any
	if err := json.Unmarshal(wire["messages"], &messages); err != nil {
		t.Fatalf("messages field: %v", err)
	}
	if _, ok := messages[0]["id"]; ok {
		t.Error("client-side message id leaked onto the wire")
	}
	if messages[1]["name"] != "propose_return" {
		t.Errorf("function message name = %v", messages[1]["name"])
	}

	var fnCall string
	if err := json.Unmarshal(wire["function_call"], &fnCall); err != nil || fnCall != "auto" {
		t.Errorf("function_call = %s", wire["function_call"])
	}
}

func TestName(t *testing.T) {
	if got := New("key").Name(); got != "openai" {
		t.Errorf("Name() = %q, want openai", got)
	}
}
