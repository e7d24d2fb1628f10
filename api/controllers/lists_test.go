package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/pagination"
)

type testListsService struct {
	shoppinglists.Service
	createFn     func(ctx context.Context, input shoppinglists.CreateListInput) (*shoppinglists.ListDTO, error)
	getFn        func(ctx context.Context, listID, userID uuid.UUID) (*shoppinglists.ListDTO, error)
	listFn       func(ctx context.Context, ownerID uuid.UUID, query shoppinglists.ListQuery) (pagination.Page[shoppinglists.ListSummaryDTO], error)
	addItemFn    func(ctx context.Context, listID, userID uuid.UUID, input shoppinglists.AddItemInput) (*shoppinglists.ItemDTO, error)
	updateItemFn func(ctx context.Context, itemID, userID uuid.UUID, input shoppinglists.UpdateItemInput) (*shoppinglists.ItemDTO, error)
	deleteListFn func(ctx context.Context, listID, userID uuid.UUID) error
}

func (s *testListsService) CreateList(ctx context.Context, input shoppinglists.CreateListInput) (*shoppinglists.ListDTO, error) {
	return s.createFn(ctx, input)
}

func (s *testListsService) GetList(ctx context.Context, listID, userID uuid.UUID) (*shoppinglists.ListDTO, error) {
	return s.getFn(ctx, listID, userID)
}

func (s *testListsService) ListLists(ctx context.Context, ownerID uuid.UUID, query shoppinglists.ListQuery) (pagination.Page[shoppinglists.ListSummaryDTO], error) {
	return s.listFn(ctx, ownerID, query)
}

func (s *testListsService) AddItem(ctx context.Context, listID, userID uuid.UUID, input shoppinglists.AddItemInput) (*shoppinglists.ItemDTO, error) {
	return s.addItemFn(ctx, listID, userID, input)
}

func (s *testListsService) UpdateItem(ctx context.Context, itemID, userID uuid.UUID, input shoppinglists.UpdateItemInput) (*shoppinglists.ItemDTO, error) {
	return s.updateItemFn(ctx, itemID, userID, input)
}

func (s *testListsService) DeleteList(ctx context.Context, listID, userID uuid.UUID) error {
	return s.deleteListFn(ctx, listID, userID)
}

func TestListCreateDefaultsNetPantry(t *testing.T) {
	userID := uuid.New()
	var captured shoppinglists.CreateListInput
	svc := &testListsService{
		createFn: func(ctx context.Context, input shoppinglists.CreateListInput) (*shoppinglists.ListDTO, error) {
			captured = input
			return &shoppinglists.ListDTO{ListSummaryDTO: shoppinglists.ListSummaryDTO{ID: uuid.New(), Title: input.Title}}, nil
		},
	}

	req := newRequest(http.MethodPost, "/api/v1/lists", `{"title":"Week","ingredients":["domates - 3 adet","200 gram peynir"]}`, userID, nil)
	resp := serve(ListCreate(svc, testLogger()), req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, userID, captured.OwnerID)
	assert.True(t, captured.NetPantry)
	assert.Len(t, captured.Ingredients, 2)
}

func TestListCreateRejectsBlankTitle(t *testing.T) {
	svc := &testListsService{}
	req := newRequest(http.MethodPost, "/api/v1/lists", `{"title":"  ","ingredients":["x"]}`, uuid.New(), nil)
	resp := serve(ListCreate(svc, testLogger()), req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListCreateRequiresUser(t *testing.T) {
	req := newRequest(http.MethodPost, "/api/v1/lists", `{"title":"a","ingredients":["x"]}`, uuid.Nil, nil)
	resp := serve(ListCreate(&testListsService{}, testLogger()), req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListGetMapsNotFound(t *testing.T) {
	listID := uuid.New()
	svc := &testListsService{
		getFn: func(ctx context.Context, id, userID uuid.UUID) (*shoppinglists.ListDTO, error) {
			assert.Equal(t, listID, id)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shopping list not found")
		},
	}
	req := newRequest(http.MethodGet, "/api/v1/lists/"+listID.String(), "", uuid.New(), map[string]string{"listID": listID.String()})
	resp := serve(ListGet(svc, testLogger()), req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListGetRejectsMalformedID(t *testing.T) {
	req := newRequest(http.MethodGet, "/api/v1/lists/abc", "", uuid.New(), map[string]string{"listID": "abc"})
	resp := serve(ListGet(&testListsService{}, testLogger()), req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListIndexParsesQuery(t *testing.T) {
	var captured shoppinglists.ListQuery
	svc := &testListsService{
		listFn: func(ctx context.Context, ownerID uuid.UUID, query shoppinglists.ListQuery) (pagination.Page[shoppinglists.ListSummaryDTO], error) {
			captured = query
			return pagination.Page[shoppinglists.ListSummaryDTO]{Items: []shoppinglists.ListSummaryDTO{}, NextCursor: "next"}, nil
		},
	}
	req := newRequest(http.MethodGet, "/api/v1/lists?limit=5&status=completed&cursor=abc", "", uuid.New(), nil)
	resp := serve(ListIndex(svc, pagination.Limits{Default: 20, Max: 50}, testLogger()), req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 5, captured.Limit)
	assert.Equal(t, enums.ListStatusCompleted, captured.Status)
	assert.Equal(t, "abc", captured.Cursor)

	var envelope struct {
		Data struct {
			NextCursor string `json:"next_cursor"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "next", envelope.Data.NextCursor)
}

func TestListIndexRejectsBadStatusAndLimit(t *testing.T) {
	limits := pagination.Limits{Default: 20, Max: 50}
	req := newRequest(http.MethodGet, "/api/v1/lists?status=archived", "", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, serve(ListIndex(&testListsService{}, limits, testLogger()), req).Code)

	req = newRequest(http.MethodGet, "/api/v1/lists?limit=51", "", uuid.New(), nil)
	assert.Equal(t, http.StatusBadRequest, serve(ListIndex(&testListsService{}, limits, testLogger()), req).Code)
}

func TestListDeleteForbiddenForNonOwner(t *testing.T) {
	listID := uuid.New()
	svc := &testListsService{
		deleteListFn: func(ctx context.Context, id, userID uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can delete a list")
		},
	}
	req := newRequest(http.MethodDelete, "/", "", uuid.New(), map[string]string{"listID": listID.String()})
	assert.Equal(t, http.StatusForbidden, serve(ListDelete(svc, testLogger()), req).Code)

	svc.deleteListFn = func(ctx context.Context, id, userID uuid.UUID) error { return nil }
	req = newRequest(http.MethodDelete, "/", "", uuid.New(), map[string]string{"listID": listID.String()})
	assert.Equal(t, http.StatusNoContent, serve(ListDelete(svc, testLogger()), req).Code)
}

func TestItemAddStructured(t *testing.T) {
	listID := uuid.New()
	var captured shoppinglists.AddItemInput
	svc := &testListsService{
		addItemFn: func(ctx context.Context, id, userID uuid.UUID, input shoppinglists.AddItemInput) (*shoppinglists.ItemDTO, error) {
			captured = input
			return &shoppinglists.ItemDTO{ID: uuid.New(), ListID: id, Name: input.Name}, nil
		},
	}
	req := newRequest(http.MethodPost, "/", `{"name":"süt","quantity":"1.5","unit":"litre","category":"dairy"}`, uuid.New(), map[string]string{"listID": listID.String()})
	resp := serve(ItemAdd(svc, testLogger()), req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.NotNil(t, captured.Quantity)
	assert.True(t, captured.Quantity.Equal(decimal.RequireFromString("1.5")))
	require.NotNil(t, captured.Category)
	assert.Equal(t, enums.CategoryDairy, *captured.Category)
}

func TestItemAddValidation(t *testing.T) {
	listID := map[string]string{"listID": uuid.NewString()}
	req := newRequest(http.MethodPost, "/", `{}`, uuid.New(), listID)
	assert.Equal(t, http.StatusBadRequest, serve(ItemAdd(&testListsService{}, testLogger()), req).Code)

	req = newRequest(http.MethodPost, "/", `{"name":"x","category":"toys"}`, uuid.New(), listID)
	assert.Equal(t, http.StatusBadRequest, serve(ItemAdd(&testListsService{}, testLogger()), req).Code)
}

func TestItemAddViewerForbidden(t *testing.T) {
	svc := &testListsService{
		addItemFn: func(ctx context.Context, id, userID uuid.UUID, input shoppinglists.AddItemInput) (*shoppinglists.ItemDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "viewer role cannot write this list")
		},
	}
	req := newRequest(http.MethodPost, "/", `{"raw":"domates - 1 adet"}`, uuid.New(), map[string]string{"listID": uuid.NewString()})
	assert.Equal(t, http.StatusForbidden, serve(ItemAdd(svc, testLogger()), req).Code)
}

func TestItemUpdatePassesPartialFields(t *testing.T) {
	itemID := uuid.New()
	var captured shoppinglists.UpdateItemInput
	svc := &testListsService{
		updateItemFn: func(ctx context.Context, id, userID uuid.UUID, input shoppinglists.UpdateItemInput) (*shoppinglists.ItemDTO, error) {
			assert.Equal(t, itemID, id)
			captured = input
			return &shoppinglists.ItemDTO{ID: id, Purchased: true}, nil
		},
	}
	req := newRequest(http.MethodPut, "/", `{"purchased":true}`, uuid.New(), map[string]string{"itemID": itemID.String()})
	resp := serve(ItemUpdate(svc, testLogger()), req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, captured.Purchased)
	assert.True(t, *captured.Purchased)
	assert.Nil(t, captured.Name)
	assert.Nil(t, captured.Quantity)
	assert.Nil(t, captured.Category)
}
