// Package recipes stores favorite recipes whose raw ingredient lines feed
// menu-plan shopping lists.
package recipes

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
)

type CreateRecipeInput struct {
	Title        string
	Servings     int
	Ingredients  []string
	Instructions *string
}

type RecipeDTO struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Servings     int       `json:"servings"`
	Ingredients  []string  `json:"ingredients"`
	Instructions *string   `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service manages a user's favorite recipes.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateRecipeInput) (*RecipeDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*RecipeDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]RecipeDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// GetIngredientLines returns the raw ingredient text of a recipe.
	GetIngredientLines(ctx context.Context, id uuid.UUID) ([]string, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateRecipeInput) (*RecipeDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	lines := make([]string, 0, len(input.Ingredients))
	for _, line := range input.Ingredients {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one ingredient is required")
	}
	servings := input.Servings
	if servings <= 0 {
		servings = 1
	}

	recipe := &models.FavoriteRecipe{
		UserID:       userID,
		Title:        title,
		Servings:     servings,
		Ingredients:  lines,
		Instructions: input.Instructions,
	}
	if err := s.repo.Create(ctx, recipe); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create recipe")
	}
	dto := fromModel(recipe)
	return &dto, nil
}

// Get returns a recipe the user owns; other users' recipes are reported missing.
func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*RecipeDTO, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
	}
	dto := fromModel(recipe)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]RecipeDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipes")
	}
	out := make([]RecipeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.repo.DeleteOwned(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete recipe")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
	}
	return nil
}

func (s *service) GetIngredientLines(ctx context.Context, id uuid.UUID) ([]string, error) {
	recipe, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return recipe.Ingredients, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.FavoriteRecipe, error) {
	recipe, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "recipe not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
	}
	return recipe, nil
}

func fromModel(m *models.FavoriteRecipe) RecipeDTO {
	ingredients := m.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return RecipeDTO{
		ID:           m.ID,
		Title:        m.Title,
		Servings:     m.Servings,
		Ingredients:  ingredients,
		Instructions: m.Instructions,
		CreatedAt:    m.CreatedAt,
	}
}
