package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FavoriteRecipe is a saved recipe whose raw ingredient lines feed menu consolidation.
type FavoriteRecipe struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:favorite_recipes_user_idx"`
	Title        string    `gorm:"column:title;type:text;not null"`
	Servings     int       `gorm:"column:servings;not null;default:1"`
	Ingredients  []string  `gorm:"column:ingredients;type:jsonb;serializer:json;not null"`
	Instructions *string   `gorm:"column:instructions;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *FavoriteRecipe) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
