package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a sellable catalog entry. Order lines snapshot name and price, so
// edits here never rewrite history.
type Item struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID   *uuid.UUID       `gorm:"column:category_id;type:uuid;index:items_category_id_idx"`
	Category     *Category        `gorm:"foreignKey:CategoryID"`
	Name         string           `gorm:"column:name;not null"`
	Slug         string           `gorm:"column:slug;not null;uniqueIndex:ux_items_slug"`
	Description  string           `gorm:"column:description;type:text;not null;default:''"`
	Price        decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	SalePrice    *decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2)"`
	ImagePath    string           `gorm:"column:image_path;not null;default:''"`
	Available    bool             `gorm:"column:available;not null"`
	DisplayOrder int              `gorm:"column:display_order;not null;default:0"`
	Tags         []Tag            `gorm:"many2many:item_tags;joinForeignKey:ItemID;joinReferences:TagID"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (i Item) EffectivePrice() decimal.Decimal {
	if i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.Price
}

// HasTag reports whether the item carries the caption (case-sensitive).
func (i Item) HasTag(caption string) bool {
	for _, tag := range i.Tags {
		if tag.Caption == caption {
			return true
		}
	}
	return false
}
