package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type itemLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	Items        itemLookup
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error)
	GetWishlistIDs(ctx context.Context, userID uuid.UUID) (WishlistIDsDTO, error)
	AddItem(ctx context.Context, userID, itemID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	wishlistRepo *Repository
	items        itemLookup
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("item lookup is required")
	}
	return &service{
		wishlistRepo: params.WishlistRepo,
		items:        params.Items,
	}, nil
}

// GetWishlist returns the paginated wishlist for a user.
func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error) {
	if err := requireUser(userID); err != nil {
		return WishlistItemsPageDTO{}, err
	}
	page, err := s.wishlistRepo.ListItems(ctx, userID, cursor, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			return WishlistItemsPageDTO{}, pkgerrors.Field("cursor", "invalid cursor")
		}
		return WishlistItemsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist")
	}
	return page, nil
}

// GetWishlistIDs returns all saved item IDs for the user.
func (s *service) GetWishlistIDs(ctx context.Context, userID uuid.UUID) (WishlistIDsDTO, error) {
	if err := requireUser(userID); err != nil {
		return WishlistIDsDTO{}, err
	}
	ids, err := s.wishlistRepo.ListItemIDs(ctx, userID)
	if err != nil {
		return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wishlist ids")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return WishlistIDsDTO{ItemIDs: ids}, nil
}

// AddItem ensures the item exists and adds it to the wishlist.
func (s *service) AddItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if itemID == uuid.Nil {
		return pkgerrors.Field("item_id", "item id is required")
	}
	found, err := s.items.FindByIDs(ctx, []uuid.UUID{itemID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if len(found) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if err := s.wishlistRepo.AddItem(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.wishlistRepo.RemoveItem(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove wishlist item")
	}
	return nil
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
