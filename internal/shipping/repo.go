package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
)

// Repository reads the shipping rate table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActive returns active methods in display order.
func (r *Repository) ListActive(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC").
		Order("name ASC").
		Find(&methods).Error
	return methods, err
}

// FindByID loads a method regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// Create inserts a shipping method (seed and admin tooling).
func (r *Repository) Create(ctx context.Context, method *models.ShippingMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}
