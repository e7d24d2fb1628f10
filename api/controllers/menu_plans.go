package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/larder-backend/api/responses"
	"github.com/angelmondragon/larder-backend/api/validators"
	"github.com/angelmondragon/larder-backend/internal/menuplans"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
)

type createPlanPayload struct {
	Title       string  `json:"title" validate:"notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	WeekStart   string  `json:"week_start" validate:"required,datetime=2006-01-02"`
	Active      *bool   `json:"active"`
}

type updatePlanPayload struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Active      *bool   `json:"active"`
}

type addEntryPayload struct {
	RecipeID  string  `json:"recipe_id" validate:"required,uuid"`
	DayOfWeek *int    `json:"day_of_week" validate:"required,gte=0,lte=6"`
	MealType  string  `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snack"`
	Portions  int     `json:"portions" validate:"omitempty,gte=1,lte=100"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

type updateEntryPayload struct {
	RecipeID  *string `json:"recipe_id" validate:"omitempty,uuid"`
	DayOfWeek *int    `json:"day_of_week" validate:"omitempty,gte=0,lte=6"`
	MealType  *string `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	Portions  *int    `json:"portions" validate:"omitempty,gte=1,lte=100"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
	Completed *bool   `json:"completed"`
}

func MenuPlanCreate(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var body createPlanPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		weekStart, err := time.Parse(menuplans.WeekStartLayout, body.WeekStart)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid week_start"))
			return
		}

		plan, err := svc.CreatePlan(r.Context(), userID, menuplans.CreatePlanInput{
			Title:       body.Title,
			Description: body.Description,
			WeekStart:   weekStart,
			Active:      body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, plan)
	}
}

func MenuPlanIndex(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		plans, err := svc.ListPlans(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans)
	}
}

func MenuPlanGet(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.GetPlan(r.Context(), userID, planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

// MenuPlanActive returns the caller's active plan.
func MenuPlanActive(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		plan, err := svc.ActivePlan(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

func MenuPlanUpdate(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePlanPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.UpdatePlan(r.Context(), userID, planID, menuplans.UpdatePlanInput{
			Title:       body.Title,
			Description: body.Description,
			Active:      body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

func MenuPlanDelete(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeletePlan(r.Context(), userID, planID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func MenuEntryAdd(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addEntryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipeID, err := uuid.Parse(body.RecipeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipe_id"))
			return
		}

		entry, err := svc.AddEntry(r.Context(), userID, planID, menuplans.AddEntryInput{
			RecipeID:  recipeID,
			DayOfWeek: *body.DayOfWeek,
			MealType:  enums.MealType(body.MealType),
			Portions:  body.Portions,
			Notes:     body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func MenuEntryUpdate(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		entryID, err := validators.ParseUUIDParam(r, "entryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateEntryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := menuplans.UpdateEntryInput{
			DayOfWeek: body.DayOfWeek,
			Portions:  body.Portions,
			Notes:     body.Notes,
			Completed: body.Completed,
		}
		if body.RecipeID != nil {
			recipeID, err := uuid.Parse(*body.RecipeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipe_id"))
				return
			}
			input.RecipeID = &recipeID
		}
		if body.MealType != nil {
			mealType := enums.MealType(*body.MealType)
			input.MealType = &mealType
		}

		entry, err := svc.UpdateEntry(r.Context(), userID, entryID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// MenuEntryComplete toggles an entry between planned and completed.
func MenuEntryComplete(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		entryID, err := validators.ParseUUIDParam(r, "entryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.ToggleEntryCompletion(r.Context(), userID, entryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func MenuEntryDelete(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		entryID, err := validators.ParseUUIDParam(r, "entryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteEntry(r.Context(), userID, entryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// MenuPlanShoppingList returns the list derived from a plan, generating it on
// first access or when regenerate=true.
func MenuPlanShoppingList(svc menuplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "menu plan")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.ParseUUIDParam(r, "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		regenerate, err := validators.ParseQueryBool(r, "regenerate", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.GenerateShoppingList(r.Context(), userID, planID, regenerate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
