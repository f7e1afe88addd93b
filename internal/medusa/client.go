package medusa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/VariableVic/medusa-ai-assistant/internal/domain"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client is an HTTP client for the commerce admin API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// Ensure Client implements ReturnService.
var _ domain.ReturnService = (*Client)(nil)

// NewClient creates an admin API client for the given backend base URL.
func NewClient(baseURL, apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiToken:   apiToken,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateReturn requests a return for the order. The commerce API applies the
// mutation atomically; a failed call leaves no partial state, so callers can
// retry by resubmitting. The newest return on the responded order identifies
// the created record.
func (c *Client) CreateReturn(ctx context.Context, orderID string, req *domain.CreateReturnRequest) (*domain.ReturnRecord, error) {
	path := fmt.Sprintf("/admin/orders/%s/returns", orderID)

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Order.Returns) == 0 {
		return nil, domain.ErrServer("order response contained no returns")
	}

	last := resp.Order.Returns[len(resp.Order.Returns)-1]
	return &domain.ReturnRecord{
		ID:      last.ID,
		OrderID: resp.Order.ID,
		Status:  last.Status,
	}, nil
}

// CancelReturn cancels the return with the given id.
func (c *Client) CancelReturn(ctx context.Context, returnID string) error {
	path := fmt.Sprintf("/admin/returns/%s/cancel", returnID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// ListReturnShippingOptions lists the return shipping options available in
// the given region.
func (c *Client) ListReturnShippingOptions(ctx context.Context, regionID string) ([]domain.ShippingOption, error) {
	q := url.Values{}
	q.Set("region_id", regionID)
	q.Set("is_return", "true")

	var resp shippingOptionsResponse
	if err := c.do(ctx, http.MethodGet, "/admin/shipping-options?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	options := make([]domain.ShippingOption, len(resp.ShippingOptions))
	for i, so := range resp.ShippingOptions {
		options[i] = domain.ShippingOption{
			ID:       so.ID,
			Name:     so.Name,
			RegionID: so.RegionID,
			IsReturn: so.IsReturn,
			Amount:   so.Amount,
		}
	}
	return options, nil
}

// ListReturnReasons lists the configured return reasons.
func (c *Client) ListReturnReasons(ctx context.Context) ([]domain.ReturnReason, error) {
	var resp returnReasonsResponse
	if err := c.do(ctx, http.MethodGet, "/admin/return-reasons", nil, &resp); err != nil {
		return nil, err
	}

	reasons := make([]domain.ReturnReason, len(resp.ReturnReasons))
	for i, rr := range resp.ReturnReasons {
		reasons[i] = domain.ReturnReason{
			ID:    rr.ID,
			Value: rr.Value,
			Label: rr.Label,
		}
	}
	return reasons, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if apiErr := parseErrorResponse(respBody); apiErr != nil {
			return apiErr.toCanonical(resp.StatusCode)
		}
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
