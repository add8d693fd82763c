package mercadopago

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	sdkpayment "github.com/mercadopago/sdk-go/pkg/payment"
	sdkpreference "github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/influenciando/reseller-backend/pkg/config"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
)

type stubPreferenceAPI struct {
	createResp  *sdkpreference.Response
	getResp     *sdkpreference.Response
	err         error
	lastRequest sdkpreference.Request
	lastGetID   string
	calls       int
}

func (s *stubPreferenceAPI) Create(ctx context.Context, request sdkpreference.Request) (*sdkpreference.Response, error) {
	s.calls++
	s.lastRequest = request
	if s.err != nil {
		return nil, s.err
	}
	return s.createResp, nil
}

func (s *stubPreferenceAPI) Get(ctx context.Context, id string) (*sdkpreference.Response, error) {
	s.calls++
	s.lastGetID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.getResp, nil
}

type stubPaymentAPI struct {
	resp   *sdkpayment.Response
	err    error
	lastID int
	calls  int
}

func (s *stubPaymentAPI) Get(ctx context.Context, id int) (*sdkpayment.Response, error) {
	s.calls++
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestClient(t *testing.T, prefs *stubPreferenceAPI, pays *stubPaymentAPI) *Client {
	t.Helper()
	fixedNow := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	client, err := NewClient(config.MercadoPagoConfig{
		AccessToken:     "test-token",
		CurrencyID:      "BRL",
		SuccessURL:      "https://app.example/payment/success",
		FailureURL:      "https://app.example/payment/failure",
		PendingURL:      "https://app.example/payment/pending",
		NotificationURL: "https://app.example/api/v1/webhooks/payment-provider",
	},
		WithClock(func() time.Time { return fixedNow }),
		WithPreferenceAPI(prefs),
		WithPaymentAPI(pays),
	)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAccessToken(t *testing.T) {
	_, err := NewClient(config.MercadoPagoConfig{})
	assert.Error(t, err)
}

func TestCreatePreferenceBuildsRequest(t *testing.T) {
	prefs := &stubPreferenceAPI{createResp: &sdkpreference.Response{
		ID:        "pref-123",
		InitPoint: "https://www.mercadopago.com.br/checkout/v1/redirect?pref_id=pref-123",
	}}
	client := newTestClient(t, prefs, &stubPaymentAPI{})

	pref, err := client.CreatePreference(context.Background(), PreferenceParams{
		Title:             "Instagram Followers - 500 units",
		UnitPrice:         29.90,
		Quantity:          1,
		ExternalReference: "7a0f8b0e-2c1d-4f7e-9a63-1f2d3c4b5a69",
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-123", pref.ID)
	assert.Contains(t, pref.InitPoint, "pref-123")

	sent := prefs.lastRequest
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "Instagram Followers - 500 units", sent.Items[0].Title)
	assert.Equal(t, 1, sent.Items[0].Quantity)
	assert.InDelta(t, 29.90, sent.Items[0].UnitPrice, 1e-9)
	assert.Equal(t, "BRL", sent.Items[0].CurrencyID)

	assert.Equal(t, "7a0f8b0e-2c1d-4f7e-9a63-1f2d3c4b5a69", sent.ExternalReference)
	assert.Equal(t, "approved", sent.AutoReturn)
	assert.Equal(t, "https://app.example/api/v1/webhooks/payment-provider", sent.NotificationURL)
	require.NotNil(t, sent.BackURLs)
	assert.Equal(t, "https://app.example/payment/success", sent.BackURLs.Success)
	require.NotNil(t, sent.PaymentMethods)
	assert.Equal(t, 12, sent.PaymentMethods.Installments)

	assert.True(t, sent.Expires)
	require.NotNil(t, sent.ExpirationDateFrom)
	require.NotNil(t, sent.ExpirationDateTo)
	assert.Equal(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC), *sent.ExpirationDateFrom)
	assert.Equal(t, time.Date(2026, time.March, 17, 12, 0, 0, 0, time.UTC), *sent.ExpirationDateTo)
}

func TestCreatePreferenceDefaultsQuantity(t *testing.T) {
	prefs := &stubPreferenceAPI{createResp: &sdkpreference.Response{ID: "pref-123"}}
	client := newTestClient(t, prefs, &stubPaymentAPI{})

	_, err := client.CreatePreference(context.Background(), PreferenceParams{Title: "x", UnitPrice: 10})
	require.NoError(t, err)
	require.Len(t, prefs.lastRequest.Items, 1)
	assert.Equal(t, 1, prefs.lastRequest.Items[0].Quantity)
}

func TestCreatePreferenceValidatesInput(t *testing.T) {
	prefs := &stubPreferenceAPI{}
	client := newTestClient(t, prefs, &stubPaymentAPI{})

	_, err := client.CreatePreference(context.Background(), PreferenceParams{UnitPrice: 10})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = client.CreatePreference(context.Background(), PreferenceParams{Title: "x"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	assert.Zero(t, prefs.calls)
}

func TestCreatePreferenceGatewayError(t *testing.T) {
	prefs := &stubPreferenceAPI{err: stderrors.New("invalid access token")}
	client := newTestClient(t, prefs, &stubPaymentAPI{})

	_, err := client.CreatePreference(context.Background(), PreferenceParams{Title: "x", UnitPrice: 10})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestGetPayment(t *testing.T) {
	pays := &stubPaymentAPI{resp: &sdkpayment.Response{
		ID:                987654,
		Status:            "approved",
		StatusDetail:      "accredited",
		ExternalReference: "7a0f8b0e-2c1d-4f7e-9a63-1f2d3c4b5a69",
		TransactionAmount: 29.9,
	}}
	client := newTestClient(t, &stubPreferenceAPI{}, pays)

	payment, err := client.GetPayment(context.Background(), "987654")
	require.NoError(t, err)
	assert.Equal(t, 987654, pays.lastID)
	assert.Equal(t, "987654", payment.ID.String())
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "accredited", payment.StatusDetail)
	assert.Equal(t, "7a0f8b0e-2c1d-4f7e-9a63-1f2d3c4b5a69", payment.ExternalReference)
	assert.InDelta(t, 29.9, payment.TransactionAmount, 1e-9)
}

func TestGetPaymentValidatesID(t *testing.T) {
	pays := &stubPaymentAPI{}
	client := newTestClient(t, &stubPreferenceAPI{}, pays)

	_, err := client.GetPayment(context.Background(), "  ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = client.GetPayment(context.Background(), "not-a-number")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	assert.Zero(t, pays.calls)
}

func TestGetPaymentGatewayError(t *testing.T) {
	pays := &stubPaymentAPI{err: stderrors.New("payment not found")}
	client := newTestClient(t, &stubPreferenceAPI{}, pays)

	_, err := client.GetPayment(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestGetPreference(t *testing.T) {
	prefs := &stubPreferenceAPI{getResp: &sdkpreference.Response{ID: "pref-123", InitPoint: "https://checkout.example/pref-123"}}
	client := newTestClient(t, prefs, &stubPaymentAPI{})

	pref, err := client.GetPreference(context.Background(), "pref-123")
	require.NoError(t, err)
	assert.Equal(t, "pref-123", prefs.lastGetID)
	assert.Equal(t, "pref-123", pref.ID)
}
