package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/resinriver/storefront/pkg/db/models"
)

// Repository persists discount codes. Codes match case-insensitively.
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

// FindByCode loads a code without locking.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", normalize(code)).
		First(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// FindByCodeForUpdate loads and row-locks a code for the rest of tx so
// concurrent redemptions serialize on usage_count.
func (r *Repository) FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("UPPER(code) = ?", normalize(code)).
		First(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// IncrementUsage bumps usage_count by one. Callers hold the row lock.
func (r *Repository) IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := tx.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Create inserts a code, storing it upper-cased.
func (r *Repository) Create(ctx context.Context, discount *models.DiscountCode) error {
	discount.Code = normalize(discount.Code)
	return r.db.WithContext(ctx).Create(discount).Error
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
