package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingMethod prices delivery as base + per-item cost, waived above an
// optional free-shipping threshold.
type ShippingMethod struct {
	ID                    uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name                  string           `gorm:"column:name;not null"`
	Description           string           `gorm:"column:description;not null;default:''"`
	BaseCost              decimal.Decimal  `gorm:"column:base_cost;type:numeric(12,2);not null;default:0"`
	PerItemCost           decimal.Decimal  `gorm:"column:per_item_cost;type:numeric(12,2);not null;default:0"`
	FreeShippingThreshold *decimal.Decimal `gorm:"column:free_shipping_threshold;type:numeric(12,2)"`
	EstimatedDays         string           `gorm:"column:estimated_days;not null;default:''"`
	DisplayOrder          int              `gorm:"column:display_order;not null;default:0"`
	Active                bool             `gorm:"column:active;not null"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (s *ShippingMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
