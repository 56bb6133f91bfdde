package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/resinriver/storefront/internal/catalog"
)

// WishlistItemDTO wraps the item summary included in a wishlist row.
type WishlistItemDTO struct {
	Item      catalog.ItemDTO `json:"item"`
	CreatedAt time.Time       `json:"created_at"`
}

// WishlistPagination carries cursor metadata for wishlist listings.
type WishlistPagination struct {
	Total   int    `json:"total"`
	Current string `json:"current,omitempty"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// WishlistItemsPageDTO returns a cursor-paginated wishlist view.
type WishlistItemsPageDTO struct {
	Items      []WishlistItemDTO  `json:"items"`
	Pagination WishlistPagination `json:"pagination"`
}

// WishlistIDsDTO is a lightweight projection containing only item IDs.
type WishlistIDsDTO struct {
	ItemIDs []uuid.UUID `json:"item_ids"`
}
