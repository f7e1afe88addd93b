package domain

// ReturnItem is one line of a return proposal as parsed from a propose_return
// tool call. ReasonID is optional until validation requires it.
type ReturnItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
	ReasonID string `json:"reason_id,omitempty"`
}

// ReturnShipping selects a return shipping option and its price.
type ReturnShipping struct {
	OptionID string `json:"option_id"`
	Price    int    `json:"price"`
}

// ReturnProposalDraft is the unconfirmed return request parsed from a
// propose_return tool call. It exists only while the operator has not yet
// confirmed it and the model has not revised it.
type ReturnProposalDraft struct {
	Items          []ReturnItem    `json:"items"`
	ReturnShipping *ReturnShipping `json:"return_shipping,omitempty"`
	Note           string          `json:"note,omitempty"`
	ReceiveNow     bool            `json:"receive_now,omitempty"`
	NoNotification bool            `json:"no_notification,omitempty"`
	Refund         int             `json:"refund"`
	LocationID     string          `json:"location_id,omitempty"`
}

// ProposedItem is a draft item resolved against the order context.
type ProposedItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Variant   string `json:"variant,omitempty"`
	Reason    string `json:"reason"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
	Total     int    `json:"total"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ProposedShipping is the resolved shipping line of a validated proposal.
type ProposedShipping struct {
	Option string `json:"shipping_option"`
	Cost   int    `json:"shipping_cost"`
}

// ValidatedReturnProposal is the displayable view of a draft whose item,
// reason and shipping references all resolved against the order context.
// Refund is the display value: the model-supplied refund minus shipping cost.
type ValidatedReturnProposal struct {
	Items    []ProposedItem   `json:"items"`
	Shipping ProposedShipping `json:"shipping"`
	Refund   int              `json:"refund"`
}
