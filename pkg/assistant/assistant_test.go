package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func testOrderContext() *OrderContext {
	return &OrderContext{
		OrderID: "order_1",
		Items: []LineItem{
			{ID: "li_1", Title: "Sneakers", Quantity: 1, UnitPrice: 2000},
		},
		Customer: Customer{ID: "cus_1"},
		ReturnReasons: []ReturnReason{
			{ID: "rr_1", Label: "Wrong size"},
		},
		ShippingOptions: []ShippingOption{
			{ID: "so_1", Name: "Standard Return", Amount: 500},
		},
		CurrencyCode: "usd",
	}
}

func TestNewSession_Greeting(t *testing.T) {
	a, err := New("test-key", WithMemoryStore())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	s, err := a.NewSession(testOrderContext())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer s.Close()

	messages := s.Messages()
	if len(messages) != 1 || messages[0].Role != "assistant" {
		t.Errorf("opening messages = %+v", messages)
	}
}

func TestAssistant_EndToEndTurn(t *testing.T) {
	// A compatible completion endpoint standing in for the real API
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"role":"assistant","content":"Which items?"},"finish_reason":null}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	a, err := New("test-key",
		WithOpenAIBaseURL(srv.URL),
		WithSQLite(filepath.Join(t.TempDir(), "assistant.db")),
		WithTokenBudget(3300),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	s, err := a.NewSession(testOrderContext())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer s.Close()

	if err := s.Send(context.Background(), "I want to make a return."); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	messages := s.Messages()
	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(messages))
	}
	if messages[2].Content != "Which items?" {
		t.Errorf("assistant reply = %q", messages[2].Content)
	}
}
