package reconcile

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
	"github.com/influenciando/reseller-backend/pkg/mercadopago"
)

const notificationTypePayment = "payment"

// paymentsClient is the slice of the gateway API the webhook handler needs.
type paymentsClient interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// Notification is the gateway's webhook payload. ID identifies the delivery
// itself; the gateway sends a separate notification for every status change
// of the same payment, so Data.ID repeats across deliveries while ID does not.
type Notification struct {
	ID   json.Number `json:"id"`
	Type string      `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// NotificationAck is the webhook response body.
type NotificationAck struct {
	Message   string `json:"message"`
	OrderID   string `json:"order_id,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
}

// WebhookHandlerParams groups dependencies for the payment webhook handler.
type WebhookHandlerParams struct {
	Ledger   ledger
	Payments paymentsClient
	Guard    *IdempotencyGuard
	Logger   *logger.Logger
}

// WebhookHandler turns gateway payment notifications into order status
// transitions.
type WebhookHandler struct {
	ledger   ledger
	payments paymentsClient
	guard    *IdempotencyGuard
	logger   *logger.Logger
}

// NewWebhookHandler builds a payment webhook handler. The guard is optional;
// without it every redelivery does the full payment lookup, which is safe
// but wasteful.
func NewWebhookHandler(params WebhookHandlerParams) (*WebhookHandler, error) {
	if params.Ledger == nil {
		return nil, stderrors.New("ledger is required")
	}
	if params.Payments == nil {
		return nil, stderrors.New("payments client is required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger is required")
	}
	return &WebhookHandler{
		ledger:   params.Ledger,
		payments: params.Payments,
		guard:    params.Guard,
		logger:   params.Logger,
	}, nil
}

// HandleNotification processes one gateway notification. Non-payment types
// are acknowledged without action so the gateway stops redelivering them.
func (h *WebhookHandler) HandleNotification(ctx context.Context, notification Notification) (*NotificationAck, error) {
	if notification.Type != notificationTypePayment {
		return &NotificationAck{Message: "Notification type not handled"}, nil
	}

	paymentID := strings.TrimSpace(notification.Data.ID.String())
	if paymentID == "" {
		return nil, errors.New(errors.CodeValidation, "payment id not found in notification")
	}

	// Dedup keys on the delivery id, never the payment id: the same payment
	// legitimately notifies once per status change. A payload without a
	// delivery id is processed fresh; the status mapping is idempotent.
	deliveryID := strings.TrimSpace(notification.ID.String())
	if h.guard != nil && deliveryID != "" {
		seen, err := h.guard.CheckAndMark(ctx, deliveryID)
		if err != nil {
			// Redis being down must not drop payment notifications.
			logCtx := h.logger.WithField(ctx, "payment_id", paymentID)
			h.logger.Warn(logCtx, "idempotency guard unavailable")
		} else if seen {
			return &NotificationAck{Message: "Notification already processed"}, nil
		}
	}

	ack, err := h.process(ctx, paymentID)
	if err != nil && h.guard != nil && deliveryID != "" {
		if delErr := h.guard.Delete(ctx, deliveryID); delErr != nil {
			logCtx := h.logger.WithField(ctx, "payment_id", paymentID)
			h.logger.Warn(logCtx, "failed to release idempotency mark")
		}
	}
	return ack, err
}

func (h *WebhookHandler) process(ctx context.Context, paymentID string) (*NotificationAck, error) {
	payment, err := h.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	reference := strings.TrimSpace(payment.ExternalReference)
	if reference == "" {
		return nil, errors.New(errors.CodeNotFound, "external reference not found on payment")
	}
	orderID, err := uuid.Parse(reference)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, "external reference is not a known order")
	}

	order, err := h.ledger.ApplyPaymentStatus(ctx, orderID, payment.Status)
	if err != nil {
		return nil, err
	}

	logCtx := h.logger.WithOrderID(ctx, order.ID.String())
	logCtx = h.logger.WithField(logCtx, "payment_id", paymentID)
	logCtx = h.logger.WithField(logCtx, "status", string(order.Status))
	h.logger.Info(logCtx, "payment notification processed")

	return &NotificationAck{
		Message:   "Webhook processed successfully",
		OrderID:   order.ID.String(),
		NewStatus: string(order.Status),
	}, nil
}
