package recipes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
)

// Repository persists favorite recipes.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, recipe *models.FavoriteRecipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FavoriteRecipe, error) {
	var recipe models.FavoriteRecipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindByIDs loads recipes keyed by id; missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.FavoriteRecipe, error) {
	out := make(map[uuid.UUID]models.FavoriteRecipe, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.FavoriteRecipe
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListByUser returns the user's recipes, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.FavoriteRecipe, error) {
	var rows []models.FavoriteRecipe
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// DeleteOwned removes a recipe owned by the user and reports whether it existed.
func (r *Repository) DeleteOwned(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.FavoriteRecipe{})
	return res.RowsAffected > 0, res.Error
}
