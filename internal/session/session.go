// Package session implements the per-conversation engine behind the return
// assistant widget: serialized turns against the completion gateway, tool
// call interpretation, draft proposal state, and return confirmation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/VariableVic/medusa-ai-assistant/internal/completion"
	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
	"github.com/VariableVic/medusa-ai-assistant/internal/returns"
	"github.com/VariableVic/medusa-ai-assistant/internal/storage"
)

// greeting opens every conversation.
const greeting = "Hello, how can I help you?"

// maxToolRounds bounds the tool-call loop within one operator turn. The
// model normally needs at most a handful of follow-up rounds to collect
// items, reason and shipping.
const maxToolRounds = 5

// Session errors.
var (
	// ErrTurnInFlight is returned when a submission arrives while a
	// completion is still streaming. Turns are strictly serialized.
	ErrTurnInFlight = errors.New("a completion is already in progress")

	// ErrActionInFlight is returned when a confirm or cancel action is
	// already running. At most one domain mutation is in flight per action.
	ErrActionInFlight = errors.New("action already in progress")

	// ErrAlreadyConfirmed is returned when a proposal message was already
	// confirmed; a confirmed return is never created twice.
	ErrAlreadyConfirmed = errors.New("return already created for this message")

	// ErrNoDraft is returned when confirmation is requested but no draft
	// proposal is stored.
	ErrNoDraft = errors.New("no draft proposal to confirm")

	// ErrNoPendingReturn is returned when cancellation is requested but no
	// pending return id is known.
	ErrNoPendingReturn = errors.New("no pending return to cancel")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session is closed")
)

// Notifier surfaces one-time operator notifications for action outcomes.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// nopNotifier drops notifications.
type nopNotifier struct{}

func (nopNotifier) Success(title, message string) {}
func (nopNotifier) Error(title, message string)   {}

// Option configures a session.
type Option func(*Session)

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithStore persists the conversation to the given store.
func WithStore(store storage.ConversationStore) Option {
	return func(s *Session) { s.store = store }
}

// WithContentDelta registers a callback invoked for every streamed content
// fragment, for incremental rendering.
func WithContentDelta(fn func(delta string)) Option {
	return func(s *Session) { s.onDelta = fn }
}

// Session is a single return-assistant conversation. All mutation goes
// through the session; the order context is read-only throughout.
type Session struct {
	id          string
	orderCtx    *domain.OrderContext
	completions *completion.Service
	interpreter *returns.Interpreter
	returnSvc   domain.ReturnService
	store       storage.ConversationStore
	notifier    Notifier
	onDelta     func(string)
	logger      *slog.Logger

	mu             sync.Mutex
	messages       []domain.Message
	state          returns.State
	returnsCreated map[string]bool
	streaming      bool
	confirming     bool
	cancelling     bool
	closed         bool
	cancelStream   context.CancelFunc
}

// New creates a session for the given order context and opens it with the
// assistant greeting.
func New(orderCtx *domain.OrderContext, completions *completion.Service, returnSvc domain.ReturnService, logger *slog.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		id:             uuid.New().String(),
		orderCtx:       orderCtx,
		completions:    completions,
		returnSvc:      returnSvc,
		notifier:       nopNotifier{},
		logger:         logger,
		returnsCreated: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.interpreter = returns.NewInterpreter(returnSvc, logger)

	hello := domain.Message{
		ID:      uuid.New().String(),
		Role:    "assistant",
		Content: greeting,
	}
	s.messages = append(s.messages, hello)

	if s.store != nil {
		ctx := context.Background()
		if err := s.store.CreateConversation(ctx, &storage.Conversation{
			ID:      s.id,
			OrderID: orderCtx.OrderID,
		}); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		if err := s.store.AppendMessage(ctx, s.id, hello); err != nil {
			return nil, fmt.Errorf("failed to persist greeting: %w", err)
		}
	}

	return s, nil
}

// ID returns the conversation id.
func (s *Session) ID() string {
	return s.id
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Send submits an operator message and runs the turn to completion,
// including any tool-call rounds. Turns are serialized: a second Send while
// one is streaming fails with ErrTurnInFlight and leaves state unchanged.
//
// On provider failure the user message stays appended so the operator can
// retry, and no partial assistant message is recorded.
func (s *Session) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.streaming {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	s.streaming = true

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancelStream = cancel

	userMsg := domain.Message{
		ID:      uuid.New().String(),
		Role:    "user",
		Content: text,
	}
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.streaming = false
		s.cancelStream = nil
		s.mu.Unlock()
	}()

	s.persist(userMsg)

	return s.runTurn(streamCtx)
}

// runTurn streams completions until the model answers in free text or the
// tool-round bound is hit. Each completed tool call is interpreted and its
// result appended as a function message before the next round.
func (s *Session) runTurn(ctx context.Context) error {
	for round := 0; round < maxToolRounds; round++ {
		events, err := s.completions.CreateCompletion(ctx, s.Messages(), s.orderCtx)
		if err != nil {
			return err
		}

		asm := &assembler{}
		for ev := range events {
			if ev.Error != nil {
				return ev.Error
			}
			asm.consume(ev)
			if s.onDelta != nil && ev.ContentDelta != "" {
				s.onDelta(ev.ContentDelta)
			}
		}

		assistantMsg := asm.message(uuid.New().String())
		s.append(assistantMsg)
		s.persist(assistantMsg)

		if !asm.hasFunctionCall() {
			return nil
		}

		result := s.handleFunctionCall(ctx, *assistantMsg.FunctionCall)

		fnMsg := domain.Message{
			ID:      uuid.New().String(),
			Role:    "function",
			Name:    assistantMsg.FunctionCall.Name,
			Content: result.Content(),
		}
		s.append(fnMsg)
		s.persist(fnMsg)
	}

	s.logger.Warn("tool-call round limit reached", slog.String("session_id", s.id))
	return nil
}

func (s *Session) handleFunctionCall(ctx context.Context, call domain.FunctionCall) returns.Result {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	result := s.interpreter.HandleToolCall(ctx, call, s.orderCtx, &state)

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return result
}

// Proposal renders the validated proposal of the given assistant message.
// It is a pure function of the message's tool-call arguments and the order
// context: identical inputs always yield the identical view.
func (s *Session) Proposal(messageID string) (*domain.ValidatedReturnProposal, error) {
	msg, ok := s.findMessage(messageID)
	if !ok {
		return nil, fmt.Errorf("message %s not found", messageID)
	}
	if msg.FunctionCall == nil || msg.FunctionCall.Name != returns.ProposeReturnName {
		return nil, fmt.Errorf("message %s carries no return proposal", messageID)
	}

	var draft domain.ReturnProposalDraft
	if err := json.Unmarshal([]byte(msg.FunctionCall.Arguments), &draft); err != nil {
		return nil, fmt.Errorf("malformed proposal arguments: %w", err)
	}

	return returns.Present(&draft, s.orderCtx)
}

// ConfirmReturn creates the return for the stored draft proposal. The
// message id identifies the proposal card being confirmed; once it succeeds,
// further confirmations of the same message are rejected.
//
// On failure nothing is recorded: the mutation is a single atomic call, so
// the operator can safely retry.
func (s *Session) ConfirmReturn(ctx context.Context, messageID string) (*domain.ReturnRecord, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.returnsCreated[messageID] {
		s.mu.Unlock()
		return nil, ErrAlreadyConfirmed
	}
	if s.confirming {
		s.mu.Unlock()
		return nil, ErrActionInFlight
	}
	draft := s.state.Draft
	if draft == nil {
		s.mu.Unlock()
		return nil, ErrNoDraft
	}
	s.confirming = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.confirming = false
		s.mu.Unlock()
	}()

	rec, err := s.returnSvc.CreateReturn(ctx, s.orderCtx.OrderID, &domain.CreateReturnRequest{
		Items:          draft.Items,
		ReturnShipping: draft.ReturnShipping,
		Note:           draft.Note,
		ReceiveNow:     draft.ReceiveNow,
		NoNotification: draft.NoNotification,
		Refund:         draft.Refund,
		LocationID:     draft.LocationID,
	})
	if err != nil {
		s.notifier.Error("Error", err.Error())
		return nil, err
	}

	s.mu.Lock()
	s.returnsCreated[messageID] = true
	s.state.PendingReturnID = rec.ID
	s.mu.Unlock()

	s.notifier.Success("Success", fmt.Sprintf("Return for %s created", rec.OrderID))

	if s.store != nil {
		if err := s.store.RecordCreatedReturn(ctx, &storage.CreatedReturn{
			ConversationID: s.id,
			MessageID:      messageID,
			ReturnID:       rec.ID,
		}); err != nil {
			s.logger.Error("failed to record created return",
				slog.String("return_id", rec.ID),
				slog.String("error", err.Error()))
		}
	}

	return rec, nil
}

// CancelPendingReturn cancels the most recently created or adopted return.
// Failure leaves the pending id unchanged so the operator can retry.
func (s *Session) CancelPendingReturn(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.cancelling {
		s.mu.Unlock()
		return ErrActionInFlight
	}
	returnID := s.state.PendingReturnID
	if returnID == "" {
		s.mu.Unlock()
		return ErrNoPendingReturn
	}
	s.cancelling = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancelling = false
		s.mu.Unlock()
	}()

	if err := s.returnSvc.CancelReturn(ctx, returnID); err != nil {
		s.notifier.Error("Error", err.Error())
		return err
	}

	s.mu.Lock()
	s.state.PendingReturnID = ""
	s.mu.Unlock()

	s.notifier.Success("Success", fmt.Sprintf("Return %s cancelled", returnID))
	return nil
}

// IsConfirmed reports whether the proposal in the given message was
// confirmed. Confirmation only grows: a confirmed return is never
// un-confirmed by further chat.
func (s *Session) IsConfirmed(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.returnsCreated[messageID]
}

// PendingReturnID returns the id of the most recent pending return, if any.
func (s *Session) PendingReturnID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PendingReturnID
}

// Close tears the session down, cancelling any in-flight stream so nothing
// updates state after teardown.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancelStream != nil {
		s.cancelStream()
	}
}

func (s *Session) append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *Session) persist(msg domain.Message) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendMessage(context.Background(), s.id, msg); err != nil {
		s.logger.Error("failed to persist message",
			slog.String("message_id", msg.ID),
			slog.String("error", err.Error()))
	}
}

func (s *Session) findMessage(messageID string) (domain.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == messageID {
			return m, true
		}
	}
	return domain.Message{}, false
}
