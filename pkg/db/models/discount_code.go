package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/enums"
)

// DiscountCode is a redeemable coupon. UsageCount only moves inside the
// checkout transaction while the row is locked.
type DiscountCode struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex:ux_discount_codes_code"`
	Description       string             `gorm:"column:description;not null;default:''"`
	Type              enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value             decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MinimumOrderTotal decimal.Decimal    `gorm:"column:minimum_order_total;type:numeric(12,2);not null;default:0"`
	MaximumDiscount   *decimal.Decimal   `gorm:"column:maximum_discount;type:numeric(12,2)"`
	UsageCount        int                `gorm:"column:usage_count;not null;default:0"`
	UsageLimit        *int               `gorm:"column:usage_limit"`
	ValidFrom         time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil        *time.Time         `gorm:"column:valid_until"`
	Active            bool               `gorm:"column:active;not null"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *DiscountCode) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
