package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// ReferenceDataSource lists the order-independent reference data a
// conversation is grounded in.
type ReferenceDataSource interface {
	ListReturnReasons(ctx context.Context) ([]domain.ReturnReason, error)
	ListReturnShippingOptions(ctx context.Context, regionID string) ([]domain.ShippingOption, error)
}

// ReferenceDataHandler serves the return reasons and shipping options the
// admin widget sends along with each completion request.
type ReferenceDataHandler struct {
	source ReferenceDataSource
	logger *slog.Logger
}

// NewReferenceDataHandler creates the handler for the reference-data routes.
func NewReferenceDataHandler(source ReferenceDataSource, logger *slog.Logger) *ReferenceDataHandler {
	return &ReferenceDataHandler{source: source, logger: logger}
}

// HandleReturnReasons serves GET /admin/assistant/return-reasons.
func (h *ReferenceDataHandler) HandleReturnReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := h.source.ListReturnReasons(r.Context())
	if err != nil {
		AddError(r.Context(), err)
		h.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"return_reasons": reasons})
}

// HandleShippingOptions serves GET /admin/assistant/shipping-options. The
// region_id query parameter scopes the listing; only return options are
// included.
func (h *ReferenceDataHandler) HandleShippingOptions(w http.ResponseWriter, r *http.Request) {
	regionID := r.URL.Query().Get("region_id")
	if regionID == "" {
		http.Error(w, "region_id is required", http.StatusBadRequest)
		return
	}

	options, err := h.source.ListReturnShippingOptions(r.Context(), regionID)
	if err != nil {
		AddError(r.Context(), err)
		h.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"shipping_options": options})
}

func (h *ReferenceDataHandler) writeError(w http.ResponseWriter, err error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.HTTPStatusCode())
		json.NewEncoder(w).Encode(map[string]any{"error": apiErr})
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
