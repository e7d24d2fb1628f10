package menuplans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
)

// Repository persists menu plans and their entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePlan(ctx context.Context, plan *models.MenuPlan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(plan).Error
}

func (r *Repository) FindPlan(ctx context.Context, id uuid.UUID) (*models.MenuPlan, error) {
	var plan models.MenuPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns the user's plans, latest week first.
func (r *Repository) ListPlans(ctx context.Context, userID uuid.UUID) ([]models.MenuPlan, error) {
	var plans []models.MenuPlan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start DESC").
		Order("created_at DESC").
		Find(&plans).Error
	return plans, err
}

// ListEntries returns a plan's entries by day then meal slot.
func (r *Repository) ListEntries(ctx context.Context, planID uuid.UUID) ([]models.MenuEntry, error) {
	var entries []models.MenuEntry
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("day_of_week ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *Repository) CreateEntry(ctx context.Context, entry *models.MenuEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) FindEntry(ctx context.Context, id uuid.UUID) (*models.MenuEntry, error) {
	var entry models.MenuEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MenuEntry{}, "id = ?", id).Error
}

// WithTx returns a repository scoped to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LockPlan loads a plan and holds its row lock until the transaction ends.
func (r *Repository) LockPlan(ctx context.Context, id uuid.UUID) (*models.MenuPlan, error) {
	var plan models.MenuPlan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindActivePlan returns the user's active plan.
func (r *Repository) FindActivePlan(ctx context.Context, userID uuid.UUID) (*models.MenuPlan, error) {
	var plan models.MenuPlan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeactivateOthers clears the active flag on every plan of the user except keep.
func (r *Repository) DeactivateOthers(ctx context.Context, userID, keep uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuPlan{}).
		Where("user_id = ? AND id <> ? AND is_active = ?", userID, keep, true).
		Update("is_active", false).Error
}

func (r *Repository) UpdatePlan(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuPlan{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeletePlan removes a plan and its entries. Lists generated from it stay and
// lose their link.
func (r *Repository) DeletePlan(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.ShoppingList{}).
		Where("source_menu_plan_id = ?", id).
		Update("source_menu_plan_id", nil).Error; err != nil {
		return err
	}
	if err := db.Delete(&models.MenuEntry{}, "plan_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&models.MenuPlan{}, "id = ?", id).Error
}

func (r *Repository) UpdateEntry(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}
