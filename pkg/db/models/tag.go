package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeaturedTagCaption marks items promoted on the homepage.
const FeaturedTagCaption = "Featured"

type Tag struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Caption string    `gorm:"column:caption;not null;uniqueIndex:ux_tags_caption"`
}

func (t *Tag) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
