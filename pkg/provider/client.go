package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/influenciando/reseller-backend/pkg/config"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
)

// The fulfillment panel exposes a single endpoint: form-encoded POSTs with
// an "action" discriminator, JSON responses. Errors arrive as a JSON object
// with an "error" key, regardless of HTTP status.

const (
	actionServices     = "services"
	actionBalance      = "balance"
	actionAdd          = "add"
	actionStatus       = "status"
	actionRefill       = "refill"
	actionRefillStatus = "refill_status"
	actionCancel       = "cancel"

	defaultTimeout              = 30 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("provider api key is required")

// Client wraps the fulfillment panel API with centralized auth, timeouts,
// and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured panel endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the panel client from static configuration.
func NewClient(cfg config.ProviderConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	if client.baseURL == "" {
		return nil, errors.New("provider base url is required")
	}

	return client, nil
}

// Services fetches the provider's full sellable service list.
func (c *Client) Services(ctx context.Context) ([]ServiceEntry, error) {
	params := url.Values{}
	params.Set("action", actionServices)

	var entries []ServiceEntry
	if err := c.do(ctx, actionServices, params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Balance fetches the reseller account balance.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	params := url.Values{}
	params.Set("action", actionBalance)

	var balance Balance
	if err := c.do(ctx, actionBalance, params, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// CreateOrderParams carries the fields for a new panel order.
type CreateOrderParams struct {
	ServiceID int64
	Link      string
	Quantity  int

	// optional drip-feed controls
	Runs     *int
	Interval *int
}

// CreateOrder submits a new order and returns the provider's order id.
func (c *Client) CreateOrder(ctx context.Context, p CreateOrderParams) (int64, error) {
	if p.ServiceID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "provider service id is required")
	}
	if strings.TrimSpace(p.Link) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order link is required")
	}
	if p.Quantity <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order quantity must be positive")
	}

	params := url.Values{}
	params.Set("action", actionAdd)
	params.Set("service", strconv.FormatInt(p.ServiceID, 10))
	params.Set("link", p.Link)
	params.Set("quantity", strconv.Itoa(p.Quantity))
	if p.Runs != nil {
		params.Set("runs", strconv.Itoa(*p.Runs))
	}
	if p.Interval != nil {
		params.Set("interval", strconv.Itoa(*p.Interval))
	}

	var resp struct {
		Order FlexInt `json:"order"`
	}
	if err := c.do(ctx, actionAdd, params, &resp); err != nil {
		return 0, err
	}
	if resp.Order == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "provider returned no order id")
	}
	return resp.Order.Int64(), nil
}

// OrderStatus fetches the status of a single submitted order.
func (c *Client) OrderStatus(ctx context.Context, providerOrderID int64) (*OrderStatus, error) {
	params := url.Values{}
	params.Set("action", actionStatus)
	params.Set("order", strconv.FormatInt(providerOrderID, 10))

	var status OrderStatus
	if err := c.do(ctx, actionStatus, params, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// MultiOrderStatus fetches statuses for up to 100 orders in one round trip.
// The response maps provider order id (as string) to a per-order result;
// ids the provider does not recognize carry a per-entry error.
func (c *Client) MultiOrderStatus(ctx context.Context, providerOrderIDs []int64) (map[string]OrderStatusResult, error) {
	if len(providerOrderIDs) == 0 {
		return map[string]OrderStatusResult{}, nil
	}

	params := url.Values{}
	params.Set("action", actionStatus)
	params.Set("orders", joinIDs(providerOrderIDs))

	var statuses map[string]OrderStatusResult
	if err := c.do(ctx, actionStatus, params, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// RefillOrder requests a refill for one order.
func (c *Client) RefillOrder(ctx context.Context, providerOrderID int64) (int64, error) {
	params := url.Values{}
	params.Set("action", actionRefill)
	params.Set("order", strconv.FormatInt(providerOrderID, 10))

	var resp struct {
		Refill FlexInt `json:"refill"`
	}
	if err := c.do(ctx, actionRefill, params, &resp); err != nil {
		return 0, err
	}
	return resp.Refill.Int64(), nil
}

// RefillOrders requests refills for several orders at once.
func (c *Client) RefillOrders(ctx context.Context, providerOrderIDs []int64) ([]RefillReceipt, error) {
	if len(providerOrderIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("action", actionRefill)
	params.Set("orders", joinIDs(providerOrderIDs))

	var receipts []RefillReceipt
	if err := c.do(ctx, actionRefill, params, &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// RefillStatus fetches the status of one refill.
func (c *Client) RefillStatus(ctx context.Context, refillID int64) (string, error) {
	params := url.Values{}
	params.Set("action", actionRefillStatus)
	params.Set("refill", strconv.FormatInt(refillID, 10))

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, actionRefillStatus, params, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// MultiRefillStatus fetches statuses for several refills at once.
func (c *Client) MultiRefillStatus(ctx context.Context, refillIDs []int64) ([]RefillStatus, error) {
	if len(refillIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("action", actionRefillStatus)
	params.Set("refills", joinIDs(refillIDs))

	var statuses []RefillStatus
	if err := c.do(ctx, actionRefillStatus, params, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// CancelOrders requests cancellation of several orders at once.
func (c *Client) CancelOrders(ctx context.Context, providerOrderIDs []int64) ([]CancelReceipt, error) {
	if len(providerOrderIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("action", actionCancel)
	params.Set("orders", joinIDs(providerOrderIDs))

	var receipts []CancelReceipt
	if err := c.do(ctx, actionCancel, params, &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// do executes one form-encoded panel request and decodes the JSON response
// into out. Transport failures, non-2xx statuses, error payloads, and
// malformed bodies all collapse into a single coded error channel.
func (c *Client) do(ctx context.Context, action string, params url.Values, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "provider client not configured")
	}

	params.Set("key", c.apiKey)
	body := strings.NewReader(params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build %s request", action))
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", action))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), fmt.Sprintf("%s request failed", action))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("read %s response", action))
	}

	if msg := topLevelError(payload); msg != "" {
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", action))
	}
	return nil
}

// topLevelError detects the panel's {"error": "..."} failure shape. Batch
// responses key entries by order id, so only a bare "error" key counts.
func topLevelError(payload []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Error
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
