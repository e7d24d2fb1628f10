package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// ShoppingList is the aggregate root for items and share grants.
type ShoppingList struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID      uuid.UUID        `gorm:"column:owner_user_id;type:uuid;not null;index:shopping_lists_owner_idx"`
	Title            string           `gorm:"column:title;type:text;not null"`
	Notes            *string          `gorm:"column:notes;type:text"`
	Status           enums.ListStatus `gorm:"column:status;type:text;not null;default:'active'"`
	SourceMenuPlanID *uuid.UUID       `gorm:"column:source_menu_plan_id;type:uuid;uniqueIndex:shopping_lists_source_menu_plan_key"`
	CompletedAt      *time.Time       `gorm:"column:completed_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Items []ShoppingListItem `gorm:"foreignKey:ListID"`
}

func (l *ShoppingList) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	if l.Status == "" {
		l.Status = enums.ListStatusActive
	}
	return nil
}
