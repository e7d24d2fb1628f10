package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/larder-backend/api/responses"
	"github.com/angelmondragon/larder-backend/api/validators"
	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/pagination"
)

type createListPayload struct {
	Title       string   `json:"title" validate:"notblank,max=200"`
	Notes       *string  `json:"notes" validate:"omitempty,max=2000"`
	Ingredients []string `json:"ingredients" validate:"required"`
	NetPantry   *bool    `json:"net_pantry"`
}

type updateListPayload struct {
	Title *string `json:"title" validate:"omitempty,notblank,max=200"`
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

// ListCreate consolidates raw ingredient lines into a new ad-hoc list.
func ListCreate(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "shopping list")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body createListPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		netPantry := true
		if body.NetPantry != nil {
			netPantry = *body.NetPantry
		}

		list, err := svc.CreateList(r.Context(), shoppinglists.CreateListInput{
			OwnerID:     userID,
			Title:       body.Title,
			Notes:       body.Notes,
			Ingredients: body.Ingredients,
			NetPantry:   netPantry,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, list)
	}
}

// ListIndex pages through the caller's own lists.
func ListIndex(svc shoppinglists.Service, limits pagination.Limits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "shopping list")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, limits.Ceiling())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := shoppinglists.ListQuery{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:  limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseListStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = status
		}

		page, err := svc.ListLists(r.Context(), userID, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ListSharedWithMe returns lists the caller has accepted a grant for.
func ListSharedWithMe(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "sharing")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		lists, err := svc.SharedWithMe(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lists)
	}
}

func ListGet(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.GetList(r.Context(), listID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListCategories returns the list items grouped by aisle.
func ListCategories(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
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
		grouped, err := svc.GroupedItems(r.Context(), listID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, grouped)
	}
}

func ListUpdate(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body updateListPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.UpdateList(r.Context(), listID, userID, shoppinglists.UpdateListInput{
			Title: body.Title,
			Notes: body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListComplete(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
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
		list, err := svc.CompleteList(r.Context(), listID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListDelete(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.DeleteList(r.Context(), listID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
