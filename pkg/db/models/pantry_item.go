package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PantryItem records how much of an ingredient a user has on hand. An empty
// unit means the quantity is a plain count that nets against any unit.
type PantryItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:pantry_items_user_name_unit_key,priority:1"`
	IngredientName string          `gorm:"column:ingredient_name;type:text;not null;uniqueIndex:pantry_items_user_name_unit_key,priority:2"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit           string          `gorm:"column:unit;type:text;not null;default:'';uniqueIndex:pantry_items_user_name_unit_key,priority:3"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PantryItem) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
