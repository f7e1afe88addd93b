// Package assistant provides the public API for embedding the return
// assistant in an admin application. It wires the completion gateway, the
// commerce client and conversation storage so embedders only deal with
// sessions.
package assistant

import (
	"log/slog"

	"github.com/VariableVic/medusa-ai-assistant/internal/completion"
	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
	"github.com/VariableVic/medusa-ai-assistant/internal/medusa"
	openaiprovider "github.com/VariableVic/medusa-ai-assistant/internal/provider/openai"
	"github.com/VariableVic/medusa-ai-assistant/internal/session"
	"github.com/VariableVic/medusa-ai-assistant/internal/storage"
	"github.com/VariableVic/medusa-ai-assistant/internal/storage/memory"
	"github.com/VariableVic/medusa-ai-assistant/internal/storage/sqlite"
	"github.com/VariableVic/medusa-ai-assistant/internal/tokens"
)

// Re-exported conversation types.
type (
	// Session is a single return-assistant conversation.
	// See internal/session.Session for full documentation.
	Session = session.Session

	// Notifier surfaces one-time operator notifications for action outcomes.
	Notifier = session.Notifier

	// SessionOption configures a single session.
	SessionOption = session.Option

	// OrderContext is the read-only order snapshot a conversation is
	// grounded in.
	OrderContext = domain.OrderContext

	// LineItem is a purchasable line of an order.
	LineItem = domain.LineItem

	// Customer identifies the buyer of the order.
	Customer = domain.Customer

	// ReturnReason is an admin-configured return reason.
	ReturnReason = domain.ReturnReason

	// ShippingOption is a return shipping method.
	ShippingOption = domain.ShippingOption

	// ValidatedReturnProposal is the displayable view of a return proposal.
	ValidatedReturnProposal = domain.ValidatedReturnProposal
)

// Session errors.
var (
	ErrTurnInFlight     = session.ErrTurnInFlight
	ErrAlreadyConfirmed = session.ErrAlreadyConfirmed
	ErrNoDraft          = session.ErrNoDraft
	ErrNoPendingReturn  = session.ErrNoPendingReturn
	ErrClosed           = session.ErrClosed
)

// Option configures the assistant.
type Option func(*Assistant)

// WithModel selects the completion model.
func WithModel(model string) Option {
	return func(a *Assistant) { a.model = model }
}

// WithOpenAIBaseURL points the provider at a compatible API endpoint.
func WithOpenAIBaseURL(baseURL string) Option {
	return func(a *Assistant) { a.openAIBaseURL = baseURL }
}

// WithTokenBudget overrides the conversation token budget.
func WithTokenBudget(budget int) Option {
	return func(a *Assistant) { a.budget = budget }
}

// WithMedusa connects the assistant to a commerce backend for creating and
// cancelling returns.
func WithMedusa(baseURL, apiToken string) Option {
	return func(a *Assistant) {
		a.returns = medusa.NewClient(baseURL, apiToken)
	}
}

// WithReturnService supplies a custom return backend.
func WithReturnService(svc domain.ReturnService) Option {
	return func(a *Assistant) { a.returns = svc }
}

// WithSQLite persists conversations to a SQLite database at the given path.
func WithSQLite(path string) Option {
	return func(a *Assistant) { a.sqlitePath = path }
}

// WithMemoryStore persists conversations in memory only.
func WithMemoryStore() Option {
	return func(a *Assistant) { a.store = memory.New() }
}

// WithNotifier sets the notification sink for all sessions.
func WithNotifier(n Notifier) Option {
	return func(a *Assistant) { a.notifier = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

// Assistant is a configured return assistant. It is safe for concurrent use;
// each conversation runs in its own Session.
type Assistant struct {
	completions *completion.Service
	returns     domain.ReturnService
	store       storage.ConversationStore
	notifier    Notifier
	logger      *slog.Logger

	model         string
	openAIBaseURL string
	budget        int
	sqlitePath    string
}

// New creates an assistant backed by the OpenAI API.
//
// Example:
//
//	a, err := assistant.New(apiKey,
//	    assistant.WithMedusa("http://localhost:9000", medusaToken),
//	    assistant.WithSQLite("./data/assistant.db"),
//	)
func New(openAIKey string, opts ...Option) (*Assistant, error) {
	a := &Assistant{}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.model == "" {
		a.model = completion.DefaultModel
	}

	if a.store == nil && a.sqlitePath != "" {
		store, err := sqlite.New(a.sqlitePath)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	var providerOpts []openaiprovider.ProviderOption
	if a.openAIBaseURL != "" {
		providerOpts = append(providerOpts, openaiprovider.WithBaseURL(a.openAIBaseURL))
	}
	provider := openaiprovider.New(openAIKey, providerOpts...)

	counter := tokens.NewCounter(a.model)
	budgeter := tokens.NewBudgeter(counter, a.budget, a.logger)
	a.completions = completion.NewService(provider, budgeter, a.model, a.logger)

	return a, nil
}

// NewSession opens a conversation grounded in the given order context.
func (a *Assistant) NewSession(orderCtx *OrderContext, opts ...SessionOption) (*Session, error) {
	var sessionOpts []SessionOption
	if a.store != nil {
		sessionOpts = append(sessionOpts, session.WithStore(a.store))
	}
	if a.notifier != nil {
		sessionOpts = append(sessionOpts, session.WithNotifier(a.notifier))
	}
	sessionOpts = append(sessionOpts, opts...)

	return session.New(orderCtx, a.completions, a.returns, a.logger, sessionOpts...)
}

// WithContentDelta registers a per-session streaming callback.
var WithContentDelta = session.WithContentDelta

// Close releases the conversation store, if any.
func (a *Assistant) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
