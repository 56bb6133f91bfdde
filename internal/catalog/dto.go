package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	"github.com/resinriver/storefront/pkg/pagination"
)

// ListFilters narrows the browse listing.
type ListFilters struct {
	CategorySlug   string
	Tag            string
	Query          string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	Sort           enums.ItemSort
	IncludeSoldOut bool
}

// ListInput pairs filters with the requested page.
type ListInput struct {
	Filters ListFilters
	Page    pagination.Page
}

// ListResult is one page of catalog items.
type ListResult struct {
	Items    []ItemDTO           `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// HomeDTO feeds the storefront landing page.
type HomeDTO struct {
	Latest   []ItemDTO `json:"latest"`
	Featured []ItemDTO `json:"featured"`
}

type CategoryDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	IsFeatured bool      `json:"is_featured"`
	ShowInMenu bool      `json:"show_in_menu"`
}

type ItemDTO struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	OnSale         bool             `json:"on_sale"`
	Available      bool             `json:"available"`
	ImagePath      string           `json:"image_path,omitempty"`
	Category       *CategoryDTO     `json:"category,omitempty"`
	Tags           []string         `json:"tags"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SitemapEntry is one <url> element.
type SitemapEntry struct {
	Location   string
	LastMod    time.Time
	ChangeFreq string
	Priority   string
}

func categoryDTO(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:         c.ID,
		Name:       c.Name,
		Slug:       c.Slug,
		IsFeatured: c.IsFeatured,
		ShowInMenu: c.ShowInMenu,
	}
}

// ToItemDTO maps a catalog row to its API shape.
func ToItemDTO(item models.Item) ItemDTO {
	tags := make([]string, 0, len(item.Tags))
	for _, tag := range item.Tags {
		tags = append(tags, tag.Caption)
	}
	return ItemDTO{
		ID:             item.ID,
		Name:           item.Name,
		Slug:           item.Slug,
		Description:    item.Description,
		Price:          item.Price,
		SalePrice:      item.SalePrice,
		EffectivePrice: item.EffectivePrice(),
		OnSale:         item.SalePrice != nil && item.SalePrice.LessThan(item.Price),
		Available:      item.Available,
		ImagePath:      item.ImagePath,
		Category:       categoryDTO(item.Category),
		Tags:           tags,
		CreatedAt:      item.CreatedAt,
	}
}

func toItemDTOs(items []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, ToItemDTO(item))
	}
	return out
}
