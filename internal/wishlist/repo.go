package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/resinriver/storefront/internal/catalog"
	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/pagination"
)

// ErrInvalidCursor reports a malformed pagination cursor.
var ErrInvalidCursor = errors.New("invalid cursor")

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	entry := models.WishlistItem{UserID: userID, ItemID: itemID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(&entry).Error
}

// RemoveItem deletes the user-item entry if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.WishlistItem{}).
		Error
}

// ListItems returns a paginated list of wishlist items for a user, newest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	cursorValue := strings.TrimSpace(cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return WishlistItemsPageDTO{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	query := r.db.WithContext(ctx).
		Preload("Item").
		Preload("Item.Category").
		Where("user_id = ?", userID)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []models.WishlistItem
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&records).Error; err != nil {
		return WishlistItemsPageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	items := make([]WishlistItemDTO, 0, len(resultRows))
	for _, record := range resultRows {
		if record.Item == nil {
			continue
		}
		items = append(items, WishlistItemDTO{
			Item:      catalog.ToItemDTO(*record.Item),
			CreatedAt: record.CreatedAt,
		})
	}

	totalCount, err := r.countWishlistItems(ctx, userID)
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}
	firstCursor, err := r.fetchWishlistBoundaryCursor(ctx, userID, true)
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}
	lastCursor, err := r.fetchWishlistBoundaryCursor(ctx, userID, false)
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}

	return WishlistItemsPageDTO{
		Items: items,
		Pagination: WishlistPagination{
			Total:   int(totalCount),
			Current: cursorValue,
			First:   firstCursor,
			Last:    lastCursor,
			Prev:    cursorValue,
			Next:    nextCursor,
		},
	}, nil
}

// ListItemIDs returns every item ID the user has saved.
func (r *Repository) ListItemIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("item_id", &ids).Error
	return ids, err
}

func (r *Repository) countWishlistItems(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) fetchWishlistBoundaryCursor(ctx context.Context, userID uuid.UUID, ascending bool) (string, error) {
	order := "created_at DESC, id DESC"
	if ascending {
		order = "created_at ASC, id ASC"
	}

	var row struct {
		CreatedAt time.Time
		ID        uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Select("created_at", "id").
		Where("user_id = ?", userID).
		Order(order).
		Limit(1).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: row.CreatedAt,
		ID:        row.ID,
	}), nil
}
