package tax

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
)

// Repository reads tax configurations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForCountry returns the active rows for a country, state rows first.
func (r *Repository) ListForCountry(ctx context.Context, country string) ([]models.TaxConfiguration, error) {
	var configs []models.TaxConfiguration
	err := r.db.WithContext(ctx).
		Where("UPPER(country) = ? AND active = ?", strings.ToUpper(strings.TrimSpace(country)), true).
		Order("state DESC").
		Find(&configs).Error
	return configs, err
}

// Create inserts a tax configuration row.
func (r *Repository) Create(ctx context.Context, cfg *models.TaxConfiguration) error {
	cfg.Country = strings.ToUpper(strings.TrimSpace(cfg.Country))
	cfg.State = strings.ToUpper(strings.TrimSpace(cfg.State))
	return r.db.WithContext(ctx).Create(cfg).Error
}
