package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// MenuPlan is a user's weekly meal plan.
// At most one plan per user is active.
type MenuPlan struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:menu_plans_user_idx;uniqueIndex:menu_plans_one_active_idx,where:is_active"`
	Title       string    `gorm:"column:title;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`
	WeekStart   time.Time `gorm:"column:week_start;type:date;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Entries []MenuEntry `gorm:"foreignKey:PlanID"`
}

func (p *MenuPlan) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// MenuEntry places a recipe at a day and meal slot, scaled by portions.
type MenuEntry struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	PlanID      uuid.UUID      `gorm:"column:plan_id;type:uuid;not null;index:menu_entries_plan_idx"`
	RecipeID    uuid.UUID      `gorm:"column:recipe_id;type:uuid;not null"`
	DayOfWeek   int            `gorm:"column:day_of_week;not null"`
	MealType    enums.MealType `gorm:"column:meal_type;type:text;not null"`
	Portions    int            `gorm:"column:portions;not null;default:1"`
	Notes       *string        `gorm:"column:notes;type:text"`
	Completed   bool           `gorm:"column:is_completed;not null;default:false"`
	CompletedAt *time.Time     `gorm:"column:completed_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (e *MenuEntry) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
