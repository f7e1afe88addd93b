// Package sqlite provides a SQLite-backed ConversationStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
	"github.com/VariableVic/medusa-ai-assistant/internal/storage"
)

// Store is a SQLite implementation of ConversationStore.
type Store struct {
	db *sql.DB
}

var _ storage.ConversationStore = (*Store)(nil)

// New creates a new SQLite store at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			name TEXT,
			function_call TEXT,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS created_returns (
			conversation_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			return_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (conversation_id, message_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_order ON conversations(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt

	query := `INSERT INTO conversations (id, order_id, created_at, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, conv.ID, conv.OrderID, conv.CreatedAt, conv.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg domain.Message) error {
	if err := s.conversationExists(ctx, conversationID); err != nil {
		return err
	}

	var functionCall sql.NullString
	if msg.FunctionCall != nil {
		data, err := json.Marshal(msg.FunctionCall)
		if err != nil {
			return fmt.Errorf("failed to marshal function call: %w", err)
		}
		functionCall = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now()
	query := `INSERT INTO messages (id, conversation_id, seq, role, content, name, function_call, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?), ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		msg.ID, conversationID, conversationID, msg.Role, msg.Content,
		sql.NullString{String: msg.Name, Valid: msg.Name != ""}, functionCall, now); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if err := s.conversationExists(ctx, conversationID); err != nil {
		return nil, err
	}

	query := `SELECT id, role, content, name, function_call FROM messages
		WHERE conversation_id = ? ORDER BY seq ASC`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var name, functionCall sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &name, &functionCall); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Name = name.String
		if functionCall.Valid {
			var fc domain.FunctionCall
			if err := json.Unmarshal([]byte(functionCall.String), &fc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal function call: %w", err)
			}
			msg.FunctionCall = &fc
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (s *Store) RecordCreatedReturn(ctx context.Context, rec *storage.CreatedReturn) error {
	if err := s.conversationExists(ctx, rec.ConversationID); err != nil {
		return err
	}

	rec.CreatedAt = time.Now()
	query := `INSERT INTO created_returns (conversation_id, message_id, return_id, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, rec.ConversationID, rec.MessageID, rec.ReturnID, rec.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert created return: %w", err)
	}
	return nil
}

func (s *Store) ListCreatedReturns(ctx context.Context, conversationID string) ([]storage.CreatedReturn, error) {
	if err := s.conversationExists(ctx, conversationID); err != nil {
		return nil, err
	}

	query := `SELECT conversation_id, message_id, return_id, created_at FROM created_returns
		WHERE conversation_id = ? ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query created returns: %w", err)
	}
	defer rows.Close()

	var recs []storage.CreatedReturn
	for rows.Next() {
		var rec storage.CreatedReturn
		if err := rows.Scan(&rec.ConversationID, &rec.MessageID, &rec.ReturnID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan created return: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *Store) conversationExists(ctx context.Context, conversationID string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&one)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
