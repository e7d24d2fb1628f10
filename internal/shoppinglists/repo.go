package shoppinglists

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	"github.com/angelmondragon/larder-backend/pkg/pagination"
)

// ItemUniqueConstraint guards one row per (list, name, unit).
const ItemUniqueConstraint = "shopping_list_items_list_name_unit_key"

// Repository persists shopping lists and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a lists repository to the given DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateList(ctx context.Context, list *models.ShoppingList) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(list).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := r.db.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// LockByID loads a list and holds its row lock until the transaction ends,
// serializing read-modify-write cycles on the same list.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&list, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// FindBySourceMenuPlan returns the list derived from a menu plan.
func (r *Repository) FindBySourceMenuPlan(ctx context.Context, planID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := r.db.WithContext(ctx).First(&list, "source_menu_plan_id = ?", planID).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

type listOwnedParams struct {
	OwnerID uuid.UUID
	Status  enums.ListStatus
	Cursor  *pagination.Cursor
	Limit   int
}

// ListOwned returns up to Limit lists, newest first, after the cursor.
func (r *Repository) ListOwned(ctx context.Context, params listOwnedParams) ([]models.ShoppingList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ShoppingList{}).
		Where("owner_user_id = ?", params.OwnerID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var lists []models.ShoppingList
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Find(&lists).Error
	return lists, err
}

// UpdateList applies column updates to a list.
func (r *Repository) UpdateList(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ShoppingList{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Touch bumps updated_at so readers notice item changes.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ShoppingList{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *Repository) DeleteList(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShoppingList{}, "id = ?", id).Error
}

// ListItems returns the items of a list in insertion order.
func (r *Repository) ListItems(ctx context.Context, listID uuid.UUID) ([]models.ShoppingListItem, error) {
	var items []models.ShoppingListItem
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// CountItems returns how many rows a list holds.
func (r *Repository) CountItems(ctx context.Context, listID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ShoppingListItem{}).
		Where("list_id = ?", listID).
		Count(&count).Error
	return count, err
}

func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemByKey returns the row for (list, name, unit).
func (r *Repository) FindItemByKey(ctx context.Context, listID uuid.UUID, name, unit string) (*models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND ingredient_name = ? AND unit = ?", listID, name, unit).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItems inserts rows in one batch. An empty slice is a no-op.
func (r *Repository) CreateItems(ctx context.Context, items []models.ShoppingListItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) CreateItem(ctx context.Context, item *models.ShoppingListItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveItem writes every column of an existing item.
func (r *Repository) SaveItem(ctx context.Context, item *models.ShoppingListItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShoppingListItem{}, "id = ?", id).Error
}

// DeleteItemsByList removes every item of a list.
func (r *Repository) DeleteItemsByList(ctx context.Context, listID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&models.ShoppingListItem{}).Error
}
