package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, row *models.CartItem) error
	SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	ItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
}

// SessionStore keeps guest carts keyed by an opaque cart token.
type SessionStore interface {
	Load(ctx context.Context, token string) (SessionCart, error)
	Save(ctx context.Context, token string, cart SessionCart) error
	Delete(ctx context.Context, token string) error
}
