package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	sdkconfig "github.com/mercadopago/sdk-go/pkg/config"
	sdkpayment "github.com/mercadopago/sdk-go/pkg/payment"
	sdkpreference "github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/influenciando/reseller-backend/pkg/config"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
)

const (
	preferenceExpiry = 7 * 24 * time.Hour
	maxInstallments  = 12
	defaultTimeout   = 30 * time.Second
)

var errAccessTokenRequired = errors.New("mercado pago access token is required")

// preferenceAPI is the slice of the SDK preference client this wrapper uses.
type preferenceAPI interface {
	Create(ctx context.Context, request sdkpreference.Request) (*sdkpreference.Response, error)
	Get(ctx context.Context, id string) (*sdkpreference.Response, error)
}

// paymentAPI is the slice of the SDK payment client this wrapper uses.
type paymentAPI interface {
	Get(ctx context.Context, id int) (*sdkpayment.Response, error)
}

// Client wraps the Mercado Pago SDK with centralized timeouts and error
// mapping, exposing only the operations the order flow needs.
type Client struct {
	preferences preferenceAPI
	payments    paymentAPI
	cfg         config.MercadoPagoConfig
	timeout     time.Duration
	now         func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithClock overrides the expiration-window clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPreferenceAPI overrides the SDK preference client.
func WithPreferenceAPI(api preferenceAPI) Option {
	return func(c *Client) {
		if api != nil {
			c.preferences = api
		}
	}
}

// WithPaymentAPI overrides the SDK payment client.
func WithPaymentAPI(api paymentAPI) Option {
	return func(c *Client) {
		if api != nil {
			c.payments = api
		}
	}
}

// NewClient builds the gateway wrapper from static configuration.
func NewClient(cfg config.MercadoPagoConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errAccessTokenRequired
	}

	sdkCfg, err := sdkconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		preferences: sdkpreference.NewClient(sdkCfg),
		payments:    sdkpayment.NewClient(sdkCfg),
		cfg:         cfg,
		timeout:     timeout,
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// PreferenceParams describes the checkout preference for one order.
type PreferenceParams struct {
	Title             string
	UnitPrice         float64
	Quantity          int
	ExternalReference string
}

// Preference is the created payment handle the buyer is redirected to.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// Payment is the gateway's view of one payment attempt.
type Payment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
}

// CreatePreference creates a checkout preference with a 7-day expiration
// window and the order id as external reference.
func (c *Client) CreatePreference(ctx context.Context, p PreferenceParams) (*Preference, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference title is required")
	}
	if p.UnitPrice <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference price must be positive")
	}

	quantity := p.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	now := c.now()
	expiresAt := now.Add(preferenceExpiry)
	request := sdkpreference.Request{
		Items: []sdkpreference.ItemRequest{
			{
				Title:      p.Title,
				Quantity:   quantity,
				UnitPrice:  p.UnitPrice,
				CurrencyID: c.cfg.CurrencyID,
			},
		},
		PaymentMethods: &sdkpreference.PaymentMethodsRequest{
			Installments: maxInstallments,
		},
		BackURLs: &sdkpreference.BackURLsRequest{
			Success: c.cfg.SuccessURL,
			Failure: c.cfg.FailureURL,
			Pending: c.cfg.PendingURL,
		},
		AutoReturn:         "approved",
		NotificationURL:    c.cfg.NotificationURL,
		ExternalReference:  p.ExternalReference,
		Expires:            true,
		ExpirationDateFrom: &now,
		ExpirationDateTo:   &expiresAt,
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.preferences.Create(callCtx, request)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout preference")
	}
	return &Preference{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

// GetPayment fetches a payment by its gateway id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	trimmed := strings.TrimSpace(paymentID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	numericID, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id must be numeric")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.payments.Get(callCtx, numericID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment")
	}
	return &Payment{
		ID:                json.Number(strconv.Itoa(resp.ID)),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		TransactionAmount: resp.TransactionAmount,
	}, nil
}

// GetPreference fetches a checkout preference by id.
func (c *Client) GetPreference(ctx context.Context, preferenceID string) (*Preference, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	trimmed := strings.TrimSpace(preferenceID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference id is required")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.preferences.Get(callCtx, trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch checkout preference")
	}
	return &Preference{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}
