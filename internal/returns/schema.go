// Package returns implements the return-assistant tool surface: the function
// schemas exposed to the model, the interpreter that validates tool calls
// against live order data, and the proposal renderer.
package returns

import "github.com/VariableVic/medusa-ai-assistant/internal/domain"

// ProposeReturnName and CancelReturnName identify the two callable tools.
const (
	ProposeReturnName = "propose_return"
	CancelReturnName  = "cancel_return"
)

func prop(typ, description string) map[string]any {
	p := map[string]any{"type": typ}
	if description != "" {
		p["description"] = description
	}
	return p
}

func object(properties map[string]any, required ...string) map[string]any {
	o := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

// Functions returns the static tool schema sent with every completion
// request. The descriptions steer the model away from inventing ids, reasons
// or shipping methods; the interpreter still verifies every reference.
func Functions() []domain.FunctionDef {
	return []domain.FunctionDef{
		{
			Name: ProposeReturnName,
			Description: "Propose a return for the order. Note that prices are in cents. " +
				"Divide them by 1000 when communication pricing information. Don't mention the value in cents. " +
				"If no items, return shipping option, or return reason is specified, ask the user to specify them. " +
				"If the user does not specify a return reason or a shipping option, ALWAYS ask them to pick one of the available options. " +
				"You can't hallucinate or make up items, ids, reasons or shipping methods.",
			Parameters: object(map[string]any{
				"items": map[string]any{
					"type": "array",
					"items": object(map[string]any{
						"item_id":  prop("string", "Returned item ID."),
						"quantity": prop("number", "Returned item quantity."),
						"note":     prop("string", "Additional note for returned item."),
						"reason_id": prop("string", "Return reason ID. Starts with `rr_`, NOT `reason_`. "+
							"Must be one of the IDs retrieved by get_return_reasons. Never make up any ID yourself."),
					}, "item_id", "quantity"),
				},
				"return_shipping": object(map[string]any{
					"option_id": prop("string", "ID of one of the shipping options returned by get_shipping_options."),
					"price":     prop("number", "Return shipping option price."),
				}, "option_id", "price"),
				"note":            prop("string", "Additional note for return order."),
				"receive_now":     prop("boolean", "Flag to indicate immediate return receipt."),
				"no_notification": prop("boolean", "Flag to indicate notifications."),
				"refund": prop("number", "Refund amount for return order. "+
					"Calculate this by adding up the prices of the items being returned, and subtracting return_shipping.price. "+
					"If the user does not specify a refund amount, calculate it yourself. "+
					"If the user specifies a refund amount, use that. "+
					"If the user specifies a refund amount that is too high, ask them to specify a lower amount."),
				"location_id": prop("string", "Location ID associated with return order."),
			}, "items", "refund"),
		},
		{
			Name:        CancelReturnName,
			Description: "Cancels the return with the given ID.",
			Parameters: object(map[string]any{
				"return_id": prop("string", "ID of the return to be cancelled."),
			}, "return_id"),
		},
	}
}
