package pantry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
)

// Repository persists on-hand ingredient quantities.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's pantry sorted by name.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PantryItem, error) {
	var rows []models.PantryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ingredient_name ASC").
		Order("unit ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByKey(ctx context.Context, userID uuid.UUID, name, unit string) (*models.PantryItem, error) {
	var row models.PantryItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND ingredient_name = ? AND unit = ?", userID, name, unit).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, row *models.PantryItem) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) UpdateQuantity(ctx context.Context, row *models.PantryItem) error {
	return r.db.WithContext(ctx).
		Model(row).
		Update("quantity", row.Quantity).Error
}

// DeleteOwned removes a row owned by the user and reports whether it existed.
func (r *Repository) DeleteOwned(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.PantryItem{})
	return res.RowsAffected > 0, res.Error
}
