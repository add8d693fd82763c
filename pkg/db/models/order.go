package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/influenciando/reseller-backend/pkg/enums"
)

// Order is the central ledger entity. Price fields are computed once at
// creation and frozen; catalog price changes never alter existing orders.
// Orders are never hard-deleted.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProviderOrderID *int64            `gorm:"column:provider_order_id;uniqueIndex" json:"provider_order_id"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ServiceID       uuid.UUID         `gorm:"column:service_id;type:uuid;not null" json:"service_id"`
	Link            string            `gorm:"column:link;not null" json:"link"`
	Quantity        int               `gorm:"column:quantity;not null" json:"quantity"`
	PricePaid       float64           `gorm:"column:price_paid;not null" json:"price_paid"`
	CostToUs        float64           `gorm:"column:cost_to_us;not null" json:"cost_to_us"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'Pending Payment'" json:"status"`
	StartCount      *int              `gorm:"column:start_count" json:"start_count"`
	Remains         *int              `gorm:"column:remains" json:"remains"`
	Service         *Service          `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	User            *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
