// Package pantry records what a user already has so shopping lists can skip it.
package pantry

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/larder-backend/internal/consolidation"
	"github.com/angelmondragon/larder-backend/internal/ingredients"
	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
)

const uniqueConstraint = "pantry_items_user_name_unit_key"

// UpsertInput sets the on-hand amount of an ingredient. An empty unit stores a
// plain count.
type UpsertInput struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
}

type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Service exposes the pantry store.
type Service interface {
	GetOnHand(ctx context.Context, userID uuid.UUID) (consolidation.Pantry, error)
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Upsert(ctx context.Context, userID uuid.UUID, input UpsertInput) (*ItemDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pantry repository is required")
	}
	return &service{repo: repo}, nil
}

// GetOnHand returns the user's stock keyed by ingredient name.
func (s *service) GetOnHand(ctx context.Context, userID uuid.UUID) (consolidation.Pantry, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pantry")
	}
	out := consolidation.Pantry{}
	for _, row := range rows {
		out.Add(row.IngredientName, row.Quantity, row.Unit)
	}
	return out, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pantry")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, fromModel(&rows[i]))
	}
	return out, nil
}

// Upsert sets the quantity for (name, unit), creating the row when missing.
func (s *service) Upsert(ctx context.Context, userID uuid.UUID, input UpsertInput) (*ItemDTO, error) {
	name, _ := consolidation.Key(input.Name, "")
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	quantity, ok := ingredients.NormalizeQuantity(input.Quantity)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be 0 or between 0.001 and %s", ingredients.MaxQuantity)
	}
	input.Quantity = quantity
	unit := ingredients.Lower(strings.Join(strings.Fields(input.Unit), " "))

	row, err := s.repo.FindByKey(ctx, userID, name, unit)
	switch {
	case err == nil:
		row.Quantity = input.Quantity
		if err := s.repo.UpdateQuantity(ctx, row); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pantry item")
		}
	case db.IsNotFound(err):
		row = &models.PantryItem{UserID: userID, IngredientName: name, Quantity: input.Quantity, Unit: unit}
		if err := s.repo.Create(ctx, row); err != nil {
			if db.IsUniqueViolation(err, uniqueConstraint) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "pantry item was created concurrently")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pantry item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pantry item")
	}

	dto := fromModel(row)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.repo.DeleteOwned(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pantry item")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pantry item not found")
	}
	return nil
}

func fromModel(m *models.PantryItem) ItemDTO {
	return ItemDTO{
		ID:        m.ID,
		Name:      m.IngredientName,
		Quantity:  m.Quantity,
		Unit:      m.Unit,
		UpdatedAt: m.UpdatedAt,
	}
}
