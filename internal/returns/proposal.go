package returns

import (
	"errors"
	"fmt"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// Validation errors returned by Present. A nil proposal always comes with one
// of these; callers distinguishing "still incomplete" from "bad reference"
// can match with errors.Is.
var (
	ErrNoItems         = errors.New("proposal has no items")
	ErrMissingReason   = errors.New("proposal item has no return reason")
	ErrMissingShipping = errors.New("proposal has no return shipping option")
	ErrUnknownItem     = errors.New("proposal references an unknown line item")
	ErrUnknownReason   = errors.New("proposal references an unknown return reason")
	ErrUnknownShipping = errors.New("proposal references an unknown shipping option")
	ErrUnnamedShipping = errors.New("shipping option has no name")
)

// Present resolves a draft proposal against the order context and builds the
// displayable view. It is a pure function of its inputs: identical draft and
// context always yield the identical view.
//
// The displayed refund is the model-supplied refund minus the shipping cost;
// the authoritative refund remains the draft's value and is what confirmation
// submits to the commerce API.
func Present(draft *domain.ReturnProposalDraft, orderCtx *domain.OrderContext) (*domain.ValidatedReturnProposal, error) {
	if draft == nil || len(draft.Items) == 0 {
		return nil, ErrNoItems
	}
	if draft.ReturnShipping == nil || draft.ReturnShipping.OptionID == "" {
		return nil, ErrMissingShipping
	}

	items := make([]domain.ProposedItem, 0, len(draft.Items))
	for _, ri := range draft.Items {
		if ri.ReasonID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingReason, ri.ItemID)
		}

		item := orderCtx.Item(ri.ItemID)
		if item == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, ri.ItemID)
		}

		reason := orderCtx.ReturnReason(ri.ReasonID)
		if reason == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownReason, ri.ReasonID)
		}

		items = append(items, domain.ProposedItem{
			ID:        ri.ItemID,
			Title:     item.Title,
			Variant:   item.Variant,
			Reason:    reason.Label,
			Quantity:  ri.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     ri.Quantity * item.UnitPrice,
			Thumbnail: item.Thumbnail,
		})
	}

	option := orderCtx.ShippingOption(draft.ReturnShipping.OptionID)
	if option == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShipping, draft.ReturnShipping.OptionID)
	}
	if option.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnnamedShipping, option.ID)
	}

	shipping := domain.ProposedShipping{
		Option: option.Name,
		Cost:   draft.ReturnShipping.Price,
	}

	return &domain.ValidatedReturnProposal{
		Items:    items,
		Shipping: shipping,
		Refund:   draft.Refund - shipping.Cost,
	}, nil
}
