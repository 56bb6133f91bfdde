package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxConfiguration is a sales tax rate for a country, optionally narrowed to a
// state. An empty State applies country-wide.
type TaxConfiguration struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Country   string          `gorm:"column:country;not null;uniqueIndex:ux_tax_configurations_region"`
	State     string          `gorm:"column:state;not null;default:'';uniqueIndex:ux_tax_configurations_region"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(6,4);not null"`
	Active    bool            `gorm:"column:active;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *TaxConfiguration) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
