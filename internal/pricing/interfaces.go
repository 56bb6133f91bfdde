package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
)

// ShippingMethods loads the shipping rate table.
type ShippingMethods interface {
	ListActive(ctx context.Context) ([]models.ShippingMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
}

// TaxRates loads tax configurations for a destination country.
type TaxRates interface {
	ListForCountry(ctx context.Context, country string) ([]models.TaxConfiguration, error)
}

// DiscountCodes looks up discount codes, optionally locking the row inside tx.
type DiscountCodes interface {
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.DiscountCode, error)
}
