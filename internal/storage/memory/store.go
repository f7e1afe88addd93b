// Package memory provides an in-memory ConversationStore for tests and
// single-process development runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
	"github.com/VariableVic/medusa-ai-assistant/internal/storage"
)

// Store is an in-memory implementation of ConversationStore.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*storage.Conversation
	messages      map[string][]domain.Message
	returns       map[string][]storage.CreatedReturn
}

var _ storage.ConversationStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		conversations: make(map[string]*storage.Conversation),
		messages:      make(map[string][]domain.Message),
		returns:       make(map[string][]storage.CreatedReturn),
	}
}

func (s *Store) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt

	stored := *conv
	s.conversations[conv.ID] = &stored
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return storage.ErrNotFound
	}

	s.messages[conversationID] = append(s.messages[conversationID], msg)
	s.conversations[conversationID].UpdatedAt = time.Now()
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, storage.ErrNotFound
	}

	msgs := s.messages[conversationID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) RecordCreatedReturn(ctx context.Context, rec *storage.CreatedReturn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[rec.ConversationID]; !ok {
		return storage.ErrNotFound
	}

	rec.CreatedAt = time.Now()
	s.returns[rec.ConversationID] = append(s.returns[rec.ConversationID], *rec)
	return nil
}

func (s *Store) ListCreatedReturns(ctx context.Context, conversationID string) ([]storage.CreatedReturn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, storage.ErrNotFound
	}

	recs := s.returns[conversationID]
	out := make([]storage.CreatedReturn, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *Store) Close() error {
	return nil
}
