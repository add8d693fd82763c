package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a catalog entry mirrored from the fulfillment provider with a
// local profit margin applied on top of the wholesale rate.
type Service struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProviderServiceID int64     `gorm:"column:provider_service_id;uniqueIndex;not null" json:"provider_service_id"`
	Name              string    `gorm:"column:name;not null" json:"name"`
	Description       string    `gorm:"column:description" json:"description"`
	Rate              float64   `gorm:"column:rate;not null" json:"rate"`
	MinQuantity       *int      `gorm:"column:min_quantity" json:"min"`
	MaxQuantity       *int      `gorm:"column:max_quantity" json:"max"`
	ServiceType       string    `gorm:"column:service_type" json:"type"`
	Category          string    `gorm:"column:category" json:"category"`
	ProfitMargin      float64   `gorm:"column:profit_margin;not null;default:0.2" json:"profit_margin"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// FinalPrice is the retail rate per 1000 units: wholesale rate plus margin.
func (s Service) FinalPrice() float64 {
	rate := decimal.NewFromFloat(s.Rate)
	margin := decimal.NewFromFloat(s.ProfitMargin)
	price, _ := rate.Mul(decimal.NewFromInt(1).Add(margin)).Float64()
	return price
}
