// Package storage defines persistence for return-assistant conversations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation is a persisted return-assistant conversation.
type Conversation struct {
	ID        string
	OrderID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatedReturn records a return confirmed from a conversation, keyed by the
// message whose proposal was confirmed.
type CreatedReturn struct {
	ConversationID string
	MessageID      string
	ReturnID       string
	CreatedAt      time.Time
}

// ConversationStore persists conversations, their messages, and the returns
// created from them.
type ConversationStore interface {
	// CreateConversation stores a new conversation.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// AppendMessage appends a message to a conversation.
	AppendMessage(ctx context.Context, conversationID string, msg domain.Message) error

	// ListMessages returns a conversation's messages in append order.
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)

	// RecordCreatedReturn records a confirmed return.
	RecordCreatedReturn(ctx context.Context, rec *CreatedReturn) error

	// ListCreatedReturns returns the confirmed returns of a conversation in
	// creation order.
	ListCreatedReturns(ctx context.Context, conversationID string) ([]CreatedReturn, error)

	// Close releases the store's resources.
	Close() error
}
