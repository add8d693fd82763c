package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/influenciando/reseller-backend/api/responses"
	"github.com/influenciando/reseller-backend/internal/reconcile"
	pkgerrors "github.com/influenciando/reseller-backend/pkg/errors"
	"github.com/influenciando/reseller-backend/pkg/logger"
)

type webhookHandler interface {
	HandleNotification(ctx context.Context, notification reconcile.Notification) (*reconcile.NotificationAck, error)
}

// PaymentWebhook receives gateway payment notifications. The response body
// is the gateway's documented ack shape, not the API envelope.
func PaymentWebhook(handler webhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var notification reconcile.Notification
		if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification payload"))
			return
		}

		ack, err := handler.HandleNotification(r.Context(), notification)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(ack); err != nil {
			logg.Error(r.Context(), "failed to encode webhook ack", err)
		}
	}
}
