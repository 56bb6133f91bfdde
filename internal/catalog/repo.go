package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	"github.com/resinriver/storefront/pkg/pagination"
)

const effectivePriceExpr = "COALESCE(items.sale_price, items.price)"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Repository reads and seeds catalog rows.
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

// List returns one page of items matching filters plus the total match count.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Page) ([]models.Item, int64, error) {
	query := r.filtered(ctx, filters)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Item
	err := applySort(query, filters.Sort).
		Preload("Category").
		Preload("Tags").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) filtered(ctx context.Context, filters ListFilters) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Item{})
	if !filters.IncludeSoldOut {
		query = query.Where("items.available = ?", true)
	}
	if slug := strings.TrimSpace(filters.CategorySlug); slug != "" {
		query = query.Where("items.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if tag := strings.TrimSpace(filters.Tag); tag != "" {
		query = query.Where("items.id IN (?)",
			r.db.Table("item_tags").
				Select("item_tags.item_id").
				Joins("JOIN tags ON tags.id = item_tags.tag_id").
				Where("LOWER(tags.caption) = ?", strings.ToLower(tag)))
	}
	if q := strings.ToLower(strings.TrimSpace(filters.Query)); q != "" {
		like := "%" + likeEscaper.Replace(q) + "%"
		query = query.Where(`(LOWER(items.name) LIKE ? ESCAPE '\' OR LOWER(items.description) LIKE ? ESCAPE '\')`, like, like)
	}
	// Bind prices as floats: the COALESCE expression carries no column
	// affinity, so sqlite would compare text operands lexically.
	if filters.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= ?", filters.MinPrice.InexactFloat64())
	}
	if filters.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= ?", filters.MaxPrice.InexactFloat64())
	}
	return query
}

func applySort(query *gorm.DB, sort enums.ItemSort) *gorm.DB {
	switch sort {
	case enums.ItemSortNewest:
		return query.Order("items.created_at DESC").Order("items.id DESC")
	case enums.ItemSortPriceAsc:
		return query.Order(effectivePriceExpr + " ASC").Order("items.name ASC")
	case enums.ItemSortPriceDesc:
		return query.Order(effectivePriceExpr + " DESC").Order("items.name ASC")
	default:
		return query.Order("items.display_order ASC").Order("items.name ASC")
	}
}

// FindBySlug loads an item with category and tags.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Where("slug = ?", slug).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs loads items by id; missing ids are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// Latest returns the newest available items.
func (r *Repository) Latest(ctx context.Context, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Where("available = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// ListByTag returns every available item carrying caption.
func (r *Repository) ListByTag(ctx context.Context, caption string) ([]models.Item, error) {
	var items []models.Item
	err := applySort(r.filtered(ctx, ListFilters{Tag: caption}), enums.ItemSortDisplayOrder).
		Preload("Category").
		Preload("Tags").
		Find(&items).Error
	return items, err
}

// Categories returns every category ordered by name.
func (r *Repository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// SitemapItems returns the slug and timestamp of every available item.
func (r *Repository) SitemapItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Select("id", "slug", "created_at").
		Where("available = ?", true).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// FindOrCreateTag returns the tag with caption, creating it when missing.
func (r *Repository) FindOrCreateTag(ctx context.Context, caption string) (*models.Tag, error) {
	tag := models.Tag{Caption: caption}
	err := r.db.WithContext(ctx).Where(models.Tag{Caption: caption}).FirstOrCreate(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// CreateItem inserts an item together with its tag links.
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}
