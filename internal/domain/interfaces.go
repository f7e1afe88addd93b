package domain

import (
	"context"
)

// Provider defines the interface for chat completion providers.
type Provider interface {
	Name() string

	// Stream returns a channel of completion events.
	// The channel MUST be closed by the provider when done.
	Stream(ctx context.Context, req *CompletionRequest) (<-chan CompletionEvent, error)
}

// ReturnService covers the commerce-side return lifecycle the assistant
// drives. Implemented by the Medusa admin API client.
type ReturnService interface {
	// CreateReturn requests a return for the order and responds with the
	// updated order, including the newly created return.
	CreateReturn(ctx context.Context, orderID string, req *CreateReturnRequest) (*ReturnRecord, error)

	// CancelReturn cancels the return with the given id.
	CancelReturn(ctx context.Context, returnID string) error
}

// CreateReturnRequest is the commerce API shape for requesting a return.
type CreateReturnRequest struct {
	Items          []ReturnItem    `json:"items"`
	ReturnShipping *ReturnShipping `json:"return_shipping,omitempty"`
	Note           string          `json:"note,omitempty"`
	ReceiveNow     bool            `json:"receive_now,omitempty"`
	NoNotification bool            `json:"no_notification,omitempty"`
	Refund         int             `json:"refund"`
	LocationID     string          `json:"location_id,omitempty"`
}

// ReturnRecord identifies a return created by the commerce API. The record is
// owned by that system; the assistant only tracks its id for cancellation.
type ReturnRecord struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status,omitempty"`
}
