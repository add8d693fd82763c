package orders

import (
	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/pkg/db/models"
)

// CreateOrderInput is the buyer-facing order creation payload.
type CreateOrderInput struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	Link      string    `json:"link" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderResult pairs the persisted order with the checkout handle the
// buyer is redirected to.
type CreateOrderResult struct {
	Order        *models.Order `json:"order"`
	PaymentURL   string        `json:"payment_url,omitempty"`
	PreferenceID string        `json:"preference_id,omitempty"`
}
