package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/internal/pantry"
	"github.com/angelmondragon/larder-backend/internal/recipes"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
)

type testPantryService struct {
	pantry.Service
	upsertFn func(ctx context.Context, userID uuid.UUID, input pantry.UpsertInput) (*pantry.ItemDTO, error)
	deleteFn func(ctx context.Context, userID, id uuid.UUID) error
}

func (s *testPantryService) Upsert(ctx context.Context, userID uuid.UUID, input pantry.UpsertInput) (*pantry.ItemDTO, error) {
	return s.upsertFn(ctx, userID, input)
}

func (s *testPantryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.deleteFn(ctx, userID, id)
}

type testRecipesService struct {
	recipes.Service
	createFn func(ctx context.Context, userID uuid.UUID, input recipes.CreateRecipeInput) (*recipes.RecipeDTO, error)
	getFn    func(ctx context.Context, userID, id uuid.UUID) (*recipes.RecipeDTO, error)
}

func (s *testRecipesService) Create(ctx context.Context, userID uuid.UUID, input recipes.CreateRecipeInput) (*recipes.RecipeDTO, error) {
	return s.createFn(ctx, userID, input)
}

func (s *testRecipesService) Get(ctx context.Context, userID, id uuid.UUID) (*recipes.RecipeDTO, error) {
	return s.getFn(ctx, userID, id)
}

func TestPantryUpsertValidatesQuantity(t *testing.T) {
	var captured pantry.UpsertInput
	svc := &testPantryService{
		upsertFn: func(ctx context.Context, userID uuid.UUID, input pantry.UpsertInput) (*pantry.ItemDTO, error) {
			captured = input
			return &pantry.ItemDTO{ID: uuid.New(), Name: input.Name, Quantity: input.Quantity, Unit: input.Unit}, nil
		},
	}
	user := uuid.New()

	resp := serve(PantryUpsert(svc, testLogger()), newRequest(http.MethodPut, "/", `{"name":"rice","quantity":"1.5","unit":"kg"}`, user, nil))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "rice", captured.Name)
	assert.True(t, captured.Quantity.Equal(decimal.RequireFromString("1.5")))

	for _, body := range []string{
		`{"name":"rice","unit":"kg"}`,
		`{"name":"rice","quantity":-1}`,
		`{"name":"  ","quantity":1}`,
	} {
		resp := serve(PantryUpsert(svc, testLogger()), newRequest(http.MethodPut, "/", body, user, nil))
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

func TestPantryDeleteRequiresUUID(t *testing.T) {
	deleted := uuid.Nil
	svc := &testPantryService{
		deleteFn: func(ctx context.Context, userID, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	user := uuid.New()

	resp := serve(PantryDelete(svc, testLogger()), newRequest(http.MethodDelete, "/", "", user, map[string]string{"itemID": "nope"}))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	itemID := uuid.New()
	resp = serve(PantryDelete(svc, testLogger()), newRequest(http.MethodDelete, "/", "", user, map[string]string{"itemID": itemID.String()}))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, itemID, deleted)
}

func TestRecipeCreateRequiresIngredients(t *testing.T) {
	svc := &testRecipesService{
		createFn: func(ctx context.Context, userID uuid.UUID, input recipes.CreateRecipeInput) (*recipes.RecipeDTO, error) {
			return &recipes.RecipeDTO{ID: uuid.New(), Title: input.Title, Ingredients: input.Ingredients}, nil
		},
	}
	user := uuid.New()

	resp := serve(RecipeCreate(svc, testLogger()), newRequest(http.MethodPost, "/", `{"title":"Menemen","ingredients":["3 eggs","2 tomatoes"]}`, user, nil))
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = serve(RecipeCreate(svc, testLogger()), newRequest(http.MethodPost, "/", `{"title":"Empty","ingredients":[]}`, user, nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRecipeGetMapsNotFound(t *testing.T) {
	svc := &testRecipesService{
		getFn: func(ctx context.Context, userID, id uuid.UUID) (*recipes.RecipeDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "recipe not found")
		},
	}
	req := newRequest(http.MethodGet, "/", "", uuid.New(), map[string]string{"recipeID": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, serve(RecipeGet(svc, testLogger()), req).Code)
}

func TestPantryAndRecipesRequireUser(t *testing.T) {
	req := newRequest(http.MethodGet, "/", "", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(PantryIndex(&testPantryService{}, testLogger()), req).Code)

	req = newRequest(http.MethodGet, "/", "", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(RecipeIndex(&testRecipesService{}, testLogger()), req).Code)
}
