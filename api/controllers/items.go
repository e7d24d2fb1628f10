package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/larder-backend/api/responses"
	"github.com/angelmondragon/larder-backend/api/validators"
	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
)

// addItemPayload carries either a raw line ("domates - 3 adet") or the
// structured fields.
type addItemPayload struct {
	Raw      string           `json:"raw" validate:"max=500"`
	Name     string           `json:"name" validate:"max=200"`
	Quantity *decimal.Decimal `json:"quantity"`
	Unit     string           `json:"unit" validate:"max=50"`
	Category *string          `json:"category"`
}

type updateItemPayload struct {
	Name      *string          `json:"name" validate:"omitempty,notblank,max=200"`
	Quantity  *decimal.Decimal `json:"quantity"`
	Unit      *string          `json:"unit" validate:"omitempty,max=50"`
	Category  *string          `json:"category"`
	Purchased *bool            `json:"purchased"`
}

func ItemAdd(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "shopping list")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		listID, err := validators.ParseUUIDParam(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(body.Raw) == "" && strings.TrimSpace(body.Name) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "either raw or name is required"))
			return
		}
		category, err := parseCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), listID, userID, shoppinglists.AddItemInput{
			Raw:      body.Raw,
			Name:     body.Name,
			Quantity: body.Quantity,
			Unit:     body.Unit,
			Category: category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func ItemUpdate(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "shopping list")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := parseCategory(body.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItem(r.Context(), itemID, userID, shoppinglists.UpdateItemInput{
			Name:      body.Name,
			Quantity:  body.Quantity,
			Unit:      body.Unit,
			Category:  category,
			Purchased: body.Purchased,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func ItemDelete(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "shopping list")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteItem(r.Context(), itemID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func parseCategory(raw *string) (*enums.Category, error) {
	if raw == nil {
		return nil, nil
	}
	category, err := enums.ParseCategory(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").
			WithDetails(map[string]any{"category": *raw})
	}
	return &category, nil
}
