package reconcile

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/influenciando/reseller-backend/pkg/db/models"
	"github.com/influenciando/reseller-backend/pkg/enums"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/mercadopago"
)

type stubPayments struct {
	payment *mercadopago.Payment
	queue   []*mercadopago.Payment
	err     error
	calls   int
}

func (s *stubPayments) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		return next, nil
	}
	return s.payment, nil
}

type fakeIdempotencyStore struct {
	seen   map[string]bool
	setErr error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: map[string]bool{}}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if s.seen[key] {
		return "1", nil
	}
	return "", nil
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idem:%s:%s", scope, id)
}

func (s *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.seen, key)
	}
	return nil
}

func paymentNotification(deliveryID, paymentID string) Notification {
	var n Notification
	n.ID = json.Number(deliveryID)
	n.Type = "payment"
	n.Data.ID = json.Number(paymentID)
	return n
}

func newWebhookHandler(t *testing.T, led ledger, payments paymentsClient, guard *IdempotencyGuard) *WebhookHandler {
	t.Helper()
	handler, err := NewWebhookHandler(WebhookHandlerParams{
		Ledger:   led,
		Payments: payments,
		Guard:    guard,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return handler
}

func newGuard(t *testing.T, store *fakeIdempotencyStore) *IdempotencyGuard {
	t.Helper()
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-webhook")
	require.NoError(t, err)
	return guard
}

func TestHandleNotificationIgnoresNonPaymentTypes(t *testing.T) {
	payments := &stubPayments{}
	handler := newWebhookHandler(t, &stubLedger{}, payments, nil)

	var n Notification
	n.ID = json.Number("1001")
	n.Type = "merchant_order"
	n.Data.ID = json.Number("123")

	ack, err := handler.HandleNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "Notification type not handled", ack.Message)
	assert.Zero(t, payments.calls)
}

func TestHandleNotificationRequiresPaymentID(t *testing.T) {
	handler := newWebhookHandler(t, &stubLedger{}, &stubPayments{}, nil)

	_, err := handler.HandleNotification(context.Background(), paymentNotification("1001", ""))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestHandleNotificationAppliesPaymentStatus(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPendingPayment}
	led := &stubLedger{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	payments := &stubPayments{payment: &mercadopago.Payment{
		ID:                json.Number("555"),
		Status:            "approved",
		ExternalReference: order.ID.String(),
	}}
	handler := newWebhookHandler(t, led, payments, nil)

	ack, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.NoError(t, err)
	assert.Equal(t, "Webhook processed successfully", ack.Message)
	assert.Equal(t, order.ID.String(), ack.OrderID)
	assert.Equal(t, "Paid", ack.NewStatus)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
}

func TestHandleNotificationWithoutExternalReference(t *testing.T) {
	payments := &stubPayments{payment: &mercadopago.Payment{ID: json.Number("555"), Status: "approved"}}
	handler := newWebhookHandler(t, &stubLedger{}, payments, nil)

	_, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestHandleNotificationUnparsableReference(t *testing.T) {
	payments := &stubPayments{payment: &mercadopago.Payment{
		ID:                json.Number("555"),
		Status:            "approved",
		ExternalReference: "legacy-41",
	}}
	handler := newWebhookHandler(t, &stubLedger{}, payments, nil)

	_, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestHandleNotificationProcessesEachStatusChange(t *testing.T) {
	// One payment notifies once per status change: a pending delivery must
	// not suppress the approved delivery that follows it.
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPendingPayment}
	led := &stubLedger{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	payments := &stubPayments{queue: []*mercadopago.Payment{
		{ID: json.Number("555"), Status: "pending", ExternalReference: order.ID.String()},
		{ID: json.Number("555"), Status: "approved", ExternalReference: order.ID.String()},
	}}
	handler := newWebhookHandler(t, led, payments, newGuard(t, newFakeIdempotencyStore()))

	ack, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.NoError(t, err)
	assert.Equal(t, "Webhook processed successfully", ack.Message)
	assert.Equal(t, enums.OrderStatusPendingPayment, order.Status)

	ack, err = handler.HandleNotification(context.Background(), paymentNotification("1002", "555"))
	require.NoError(t, err)
	assert.Equal(t, "Webhook processed successfully", ack.Message)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
	assert.Equal(t, 2, payments.calls)
}

func TestHandleNotificationDeduplicatesRedeliveries(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPendingPayment}
	led := &stubLedger{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	payments := &stubPayments{payment: &mercadopago.Payment{
		ID:                json.Number("555"),
		Status:            "approved",
		ExternalReference: order.ID.String(),
	}}
	handler := newWebhookHandler(t, led, payments, newGuard(t, newFakeIdempotencyStore()))

	_, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.NoError(t, err)

	ack, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.NoError(t, err)
	assert.Equal(t, "Notification already processed", ack.Message)
	assert.Equal(t, 1, payments.calls)
}

func TestHandleNotificationWithoutDeliveryIDSkipsGuard(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPendingPayment}
	led := &stubLedger{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	payments := &stubPayments{payment: &mercadopago.Payment{
		ID:                json.Number("555"),
		Status:            "approved",
		ExternalReference: order.ID.String(),
	}}
	store := newFakeIdempotencyStore()
	handler := newWebhookHandler(t, led, payments, newGuard(t, store))

	ack, err := handler.HandleNotification(context.Background(), paymentNotification("", "555"))
	require.NoError(t, err)
	assert.Equal(t, "Webhook processed successfully", ack.Message)
	assert.Empty(t, store.seen)
}

func TestHandleNotificationProceedsWhenGuardFails(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPendingPayment}
	led := &stubLedger{orders: map[uuid.UUID]*models.Order{order.ID: order}}
	payments := &stubPayments{payment: &mercadopago.Payment{
		ID:                json.Number("555"),
		Status:            "approved",
		ExternalReference: order.ID.String(),
	}}
	store := newFakeIdempotencyStore()
	store.setErr = stderrors.New("connection refused")
	handler := newWebhookHandler(t, led, payments, newGuard(t, store))

	ack, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.NoError(t, err)
	assert.Equal(t, "Webhook processed successfully", ack.Message)
	assert.Equal(t, 1, payments.calls)
}

func TestHandleNotificationReleasesMarkOnFailure(t *testing.T) {
	payments := &stubPayments{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway timeout")}
	store := newFakeIdempotencyStore()
	handler := newWebhookHandler(t, &stubLedger{}, payments, newGuard(t, store))

	_, err := handler.HandleNotification(context.Background(), paymentNotification("1001", "555"))
	require.Error(t, err)
	assert.Empty(t, store.seen, "a failed delivery must release its mark for redelivery")
}
