package returns

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// Follow-up and acknowledgement texts fed back to the model as function
// results. The model relays the question; the attached reference data lets it
// answer without inventing ids.
const (
	msgNoArguments = "No arguments provided"

	msgNoItems = "No items provided. Here are the available items. " +
		"Ask the agent to select the items they want to return and call this function again with the selected items"

	msgNoShippingOption = "No return shipping option id provided. Here are the available return shipping options. " +
		"If not mentioned in previous messages, ask the agent to select the option they want to use and call this function again with the selected option"

	msgReturnProposed = "Return proposal sent to the agent. " +
		"They can now create the return by clicking the button in the card above."

	msgNoReturnID      = "No return_id provided"
	msgReturnCancelled = "Return cancelled successfully"
)

// Result is the outcome of interpreting a tool call. It is serialized as the
// content of a function-role message and appended to the conversation.
// Exactly one of Error, FollowUpQuestion, ReturnProposed or Success is set.
type Result struct {
	Error            string                  `json:"error,omitempty"`
	FollowUpQuestion string                  `json:"follow_up_question,omitempty"`
	Items            []domain.LineItem       `json:"items,omitempty"`
	ReturnReasons    []domain.ReturnReason   `json:"return_reasons,omitempty"`
	ShippingOptions  []domain.ShippingOption `json:"shipping_options,omitempty"`
	ReturnProposed   string                  `json:"return_proposed,omitempty"`
	Success          string                  `json:"success,omitempty"`
}

// Content returns the result as the JSON content of a function message.
func (r Result) Content() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Result contains only marshallable fields; this path is unreachable
		// in practice but must not panic a turn.
		return `{"error":"internal error"}`
	}
	return string(data)
}

// State is the conversation-scoped state a tool call may mutate: the current
// draft proposal and the most recent pending return id. The interpreter never
// mutates the order context.
type State struct {
	Draft           *domain.ReturnProposalDraft
	PendingReturnID string
}

// Interpreter validates tool calls from the model against the order context
// and decides the next protocol step.
type Interpreter struct {
	returns domain.ReturnService
	logger  *slog.Logger
}

// NewInterpreter creates an interpreter. The return service is only used by
// cancel_return; it may be nil in contexts where cancellation never happens.
func NewInterpreter(returns domain.ReturnService, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{returns: returns, logger: logger}
}

// HandleToolCall interprets a completed tool call. Validation problems are
// recoverable: they produce a clarifying function result and the conversation
// continues. Only the cancel branch performs a domain mutation.
func (i *Interpreter) HandleToolCall(ctx context.Context, call domain.FunctionCall, orderCtx *domain.OrderContext, state *State) Result {
	switch call.Name {
	case ProposeReturnName:
		return i.handleProposeReturn(call.Arguments, orderCtx, state)
	case CancelReturnName:
		return i.handleCancelReturn(ctx, call.Arguments, state)
	default:
		i.logger.Warn("unknown tool call", slog.String("name", call.Name))
		return Result{Error: fmt.Sprintf("Unknown function %q", call.Name)}
	}
}

// handleProposeReturn checks the draft for completeness in dependency order:
// items first, then per-item reason ids, then the shipping option. Later
// checks assume earlier ones passed; exactly one branch fires per call.
func (i *Interpreter) handleProposeReturn(arguments string, orderCtx *domain.OrderContext, state *State) Result {
	var draft domain.ReturnProposalDraft
	if err := json.Unmarshal([]byte(arguments), &draft); err != nil {
		i.logger.Warn("malformed propose_return arguments",
			slog.String("error", err.Error()))
		return Result{Error: msgNoArguments, Items: orderCtx.Items}
	}

	if len(draft.Items) == 0 {
		return Result{Error: msgNoItems, Items: orderCtx.Items}
	}

	var missingReason []string
	for _, item := range draft.Items {
		if item.ReasonID == "" {
			missingReason = append(missingReason, item.ItemID)
		}
	}
	if len(missingReason) > 0 {
		return Result{
			FollowUpQuestion: fmt.Sprintf("No return reason id provided for these items: %s. "+
				"Here are the available return reasons. If not mentioned in previous messages, "+
				"ask the agent to select the reason for the return and call this function again with the selected reason",
				strings.Join(missingReason, ",")),
			ReturnReasons: orderCtx.ReturnReasons,
		}
	}

	if draft.ReturnShipping == nil || draft.ReturnShipping.OptionID == "" {
		return Result{
			FollowUpQuestion: msgNoShippingOption,
			ShippingOptions:  orderCtx.ShippingOptions,
		}
	}

	// All checks passed. Typed decoding already dropped the transient
	// create_return_user_confirmation flag the model sometimes attaches.
	state.Draft = &draft
	return Result{ReturnProposed: msgReturnProposed}
}

// handleCancelReturn adopts a return id from the arguments when present, then
// cancels the pending return if one is known from this or a prior call.
func (i *Interpreter) handleCancelReturn(ctx context.Context, arguments string, state *State) Result {
	if arguments != "" {
		var args struct {
			ReturnID string `json:"return_id"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			i.logger.Warn("malformed cancel_return arguments",
				slog.String("error", err.Error()))
		} else if args.ReturnID != "" {
			state.PendingReturnID = args.ReturnID
		}
	}

	if state.PendingReturnID == "" {
		return Result{Error: msgNoReturnID}
	}

	if i.returns == nil {
		return Result{Error: "Return cancellation is not available"}
	}

	if err := i.returns.CancelReturn(ctx, state.PendingReturnID); err != nil {
		i.logger.Error("cancel return failed",
			slog.String("return_id", state.PendingReturnID),
			slog.String("error", err.Error()))
		return Result{Error: err.Error()}
	}

	return Result{Success: msgReturnCancelled}
}
