// Package medusa provides an HTTP client for the commerce platform's admin
// API, limited to the return lifecycle and its reference data.
package medusa

import (
	"encoding/json"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// orderResponse wraps the order envelope returned by order mutations.
type orderResponse struct {
	Order struct {
		ID      string         `json:"id"`
		Returns []returnEntity `json:"returns"`
	} `json:"order"`
}

// returnEntity is the admin API's return shape, reduced to what the
// assistant tracks.
type returnEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// shippingOptionsResponse wraps the shipping option listing.
type shippingOptionsResponse struct {
	ShippingOptions []shippingOption `json:"shipping_options"`
}

type shippingOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RegionID string `json:"region_id"`
	IsReturn bool   `json:"is_return"`
	Amount   int    `json:"amount"`
}

// returnReasonsResponse wraps the return reason listing.
type returnReasonsResponse struct {
	ReturnReasons []returnReason `json:"return_reasons"`
}

type returnReason struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// errorResponse is the admin API's error body.
type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// toCanonical maps an admin API error body to a canonical domain error.
func (e *errorResponse) toCanonical(statusCode int) *domain.APIError {
	errType := domain.ErrorTypeServer
	switch e.Type {
	case "invalid_data", "invalid_request_error", "duplicate_error":
		errType = domain.ErrorTypeInvalidRequest
	case "unauthorized":
		errType = domain.ErrorTypeAuthentication
	case "not_allowed":
		errType = domain.ErrorTypePermission
	case "not_found":
		errType = domain.ErrorTypeNotFound
	}

	return &domain.APIError{
		Type:       errType,
		Message:    e.Message,
		StatusCode: statusCode,
	}
}

// parseErrorResponse attempts to decode an admin API error body.
func parseErrorResponse(data []byte) *errorResponse {
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil
	}
	if errResp.Message == "" {
		return nil
	}
	return &errResp
}
