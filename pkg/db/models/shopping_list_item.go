package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// ShoppingListItem is one consolidated (ingredient, unit) row of a list.
type ShoppingListItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ListID         uuid.UUID       `gorm:"column:list_id;type:uuid;not null;uniqueIndex:shopping_list_items_list_name_unit_key,priority:1"`
	IngredientName string          `gorm:"column:ingredient_name;type:text;not null;uniqueIndex:shopping_list_items_list_name_unit_key,priority:2"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit           string          `gorm:"column:unit;type:text;not null;uniqueIndex:shopping_list_items_list_name_unit_key,priority:3"`
	Category       enums.Category  `gorm:"column:category;type:text;not null"`
	Purchased      bool            `gorm:"column:purchased;not null;default:false"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *ShoppingListItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
