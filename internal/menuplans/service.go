// Package menuplans manages weekly menu plans and derives their shopping lists.
package menuplans

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/internal/consolidation"
	"github.com/angelmondragon/larder-backend/internal/ingredients"
	"github.com/angelmondragon/larder-backend/internal/recipes"
	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/metrics"
)

const (
	listUniqueConstraint   = "shopping_lists_source_menu_plan_key"
	activeUniqueConstraint = "menu_plans_one_active_idx"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type recipeStore interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*recipes.RecipeDTO, error)
	GetIngredientLines(ctx context.Context, id uuid.UUID) ([]string, error)
}

// Service manages menu plans.
type Service interface {
	CreatePlan(ctx context.Context, userID uuid.UUID, input CreatePlanInput) (*PlanDTO, error)
	ListPlans(ctx context.Context, userID uuid.UUID) ([]PlanDTO, error)
	GetPlan(ctx context.Context, userID, planID uuid.UUID) (*PlanDTO, error)
	ActivePlan(ctx context.Context, userID uuid.UUID) (*PlanDTO, error)
	UpdatePlan(ctx context.Context, userID, planID uuid.UUID, input UpdatePlanInput) (*PlanDTO, error)
	DeletePlan(ctx context.Context, userID, planID uuid.UUID) error
	AddEntry(ctx context.Context, userID, planID uuid.UUID, input AddEntryInput) (*EntryDTO, error)
	UpdateEntry(ctx context.Context, userID, entryID uuid.UUID, input UpdateEntryInput) (*EntryDTO, error)
	ToggleEntryCompletion(ctx context.Context, userID, entryID uuid.UUID) (*EntryDTO, error)
	DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error
	GenerateShoppingList(ctx context.Context, userID, planID uuid.UUID, regenerate bool) (*shoppinglists.ListDTO, error)
}

type ServiceParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       *Repository
	Lists      *shoppinglists.Repository
	Recipes    recipeStore
	Pantry     shoppinglists.PantrySource
	Classifier consolidation.Classifier
	Converter  consolidation.UnitConverter
	Metrics    *metrics.ShoppingMetrics
	Clock      func() time.Time
}

type service struct {
	logg       *logger.Logger
	db         txRunner
	repo       *Repository
	lists      *shoppinglists.Repository
	recipes    recipeStore
	pantry     shoppinglists.PantrySource
	aggregator *consolidation.Aggregator
	metrics    *metrics.ShoppingMetrics
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu plan repository is required")
	case params.Lists == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list repository is required")
	case params.Recipes == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe store is required")
	case params.Pantry == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pantry source is required")
	case params.Classifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "classifier is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		logg:       params.Logger,
		db:         params.DB,
		repo:       params.Repo,
		lists:      params.Lists,
		recipes:    params.Recipes,
		pantry:     params.Pantry,
		aggregator: consolidation.New(params.Classifier, params.Converter),
		metrics:    params.Metrics,
		now:        clock,
	}, nil
}

func (s *service) CreatePlan(ctx context.Context, userID uuid.UUID, input CreatePlanInput) (*PlanDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.WeekStart.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "week_start is required")
	}
	y, m, d := input.WeekStart.Date()
	plan := &models.MenuPlan{
		UserID:      userID,
		Title:       title,
		Description: trimmedOrNil(input.Description),
		WeekStart:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		IsActive:    input.Active == nil || *input.Active,
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if plan.IsActive {
			if err := repo.DeactivateOthers(ctx, userID, uuid.Nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate menu plans")
			}
		}
		if err := repo.CreatePlan(ctx, plan); err != nil {
			if db.IsUniqueViolation(err, activeUniqueConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another menu plan was activated concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu plan")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := planFromModel(plan, nil)
	return &dto, nil
}

func (s *service) ListPlans(ctx context.Context, userID uuid.UUID) ([]PlanDTO, error) {
	plans, err := s.repo.ListPlans(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu plans")
	}
	out := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		out = append(out, planFromModel(&plans[i], nil))
	}
	return out, nil
}

func (s *service) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*PlanDTO, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, plan.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu entries")
	}
	dto := planFromModel(plan, entries)
	return &dto, nil
}

// ActivePlan returns the user's active plan with its entries.
func (s *service) ActivePlan(ctx context.Context, userID uuid.UUID) (*PlanDTO, error) {
	plan, err := s.repo.FindActivePlan(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "no active menu plan")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active menu plan")
	}
	entries, err := s.repo.ListEntries(ctx, plan.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu entries")
	}
	dto := planFromModel(plan, entries)
	return &dto, nil
}

// UpdatePlan edits a plan's title, description and active flag. Activating a
// plan deactivates the user's other plans in the same transaction.
func (s *service) UpdatePlan(ctx context.Context, userID, planID uuid.UUID, input UpdatePlanInput) (*PlanDTO, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = trimmedOrNil(input.Description)
	}
	if input.Active != nil {
		updates["is_active"] = *input.Active
	}

	var out *PlanDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := lockOwnedPlan(ctx, repo, userID, planID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if input.Active != nil && *input.Active {
				if err := repo.DeactivateOthers(ctx, userID, plan.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate menu plans")
				}
			}
			if err := repo.UpdatePlan(ctx, plan.ID, updates); err != nil {
				if db.IsUniqueViolation(err, activeUniqueConstraint) {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another menu plan was activated concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu plan")
			}
			if plan, err = repo.FindPlan(ctx, plan.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload menu plan")
			}
		}
		entries, err := repo.ListEntries(ctx, plan.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu entries")
		}
		dto := planFromModel(plan, entries)
		out = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePlan removes a plan with its entries. A shopping list generated from
// it is kept and no longer linked to the plan.
func (s *service) DeletePlan(ctx context.Context, userID, planID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		plan, err := lockOwnedPlan(ctx, repo, userID, planID)
		if err != nil {
			return err
		}
		if err := repo.DeletePlan(ctx, plan.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu plan")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithPlanID(ctx, planID.String()), "menu plan deleted")
	return nil
}

// AddEntry places one of the user's recipes on a day and meal slot.
func (s *service) AddEntry(ctx context.Context, userID, planID uuid.UUID, input AddEntryInput) (*EntryDTO, error) {
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "day_of_week must be between 0 and 6")
	}
	if !input.MealType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid meal type")
	}
	portions := input.Portions
	if portions == 0 {
		portions = 1
	}
	if err := validatePortions(portions); err != nil {
		return nil, err
	}

	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if _, err := s.recipes.Get(ctx, userID, input.RecipeID); err != nil {
		return nil, err
	}

	entry := &models.MenuEntry{
		PlanID:    plan.ID,
		RecipeID:  input.RecipeID,
		DayOfWeek: input.DayOfWeek,
		MealType:  input.MealType,
		Portions:  portions,
		Notes:     trimmedOrNil(input.Notes),
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu entry")
	}
	dto := entryFromModel(entry)
	return &dto, nil
}

// UpdateEntry edits the fields of an entry that are set. Marking it completed
// stamps completed_at; clearing the flag clears the stamp.
func (s *service) UpdateEntry(ctx context.Context, userID, entryID uuid.UUID, input UpdateEntryInput) (*EntryDTO, error) {
	updates := map[string]any{}
	if input.DayOfWeek != nil {
		if *input.DayOfWeek < 0 || *input.DayOfWeek > 6 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "day_of_week must be between 0 and 6")
		}
		updates["day_of_week"] = *input.DayOfWeek
	}
	if input.MealType != nil {
		if !input.MealType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid meal type")
		}
		updates["meal_type"] = *input.MealType
	}
	if input.Portions != nil {
		if err := validatePortions(*input.Portions); err != nil {
			return nil, err
		}
		updates["portions"] = *input.Portions
	}
	if input.Notes != nil {
		updates["notes"] = trimmedOrNil(input.Notes)
	}
	if input.Completed != nil {
		updates["is_completed"] = *input.Completed
		if *input.Completed {
			updates["completed_at"] = s.now().UTC()
		} else {
			updates["completed_at"] = nil
		}
	}

	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if input.RecipeID != nil && *input.RecipeID != entry.RecipeID {
		if _, err := s.recipes.Get(ctx, userID, *input.RecipeID); err != nil {
			return nil, err
		}
		updates["recipe_id"] = *input.RecipeID
	}
	if input.Completed != nil && *input.Completed == entry.Completed {
		// Keep the original stamp when the flag does not change.
		delete(updates, "is_completed")
		delete(updates, "completed_at")
	}
	return s.applyEntryUpdates(ctx, entry, updates)
}

// ToggleEntryCompletion flips an entry between planned and completed.
func (s *service) ToggleEntryCompletion(ctx context.Context, userID, entryID uuid.UUID) (*EntryDTO, error) {
	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"is_completed": !entry.Completed, "completed_at": nil}
	if !entry.Completed {
		updates["completed_at"] = s.now().UTC()
	}
	return s.applyEntryUpdates(ctx, entry, updates)
}

func (s *service) applyEntryUpdates(ctx context.Context, entry *models.MenuEntry, updates map[string]any) (*EntryDTO, error) {
	if len(updates) > 0 {
		if err := s.repo.UpdateEntry(ctx, entry.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu entry")
		}
		reloaded, err := s.repo.FindEntry(ctx, entry.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload menu entry")
		}
		entry = reloaded
	}
	dto := entryFromModel(entry)
	return &dto, nil
}

func (s *service) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, entry.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu entry")
	}
	return nil
}

// GenerateShoppingList returns the list derived from the plan. It is built on
// first use; with regenerate set its items are replaced in one transaction so
// readers never observe an empty list.
func (s *service) GenerateShoppingList(ctx context.Context, userID, planID uuid.UUID, regenerate bool) (*shoppinglists.ListDTO, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if !regenerate {
		existing, err := s.lists.FindBySourceMenuPlan(ctx, plan.ID)
		switch {
		case err == nil:
			return s.listView(ctx, s.lists, existing)
		case !db.IsNotFound(err):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load derived list")
		}
	}

	sources, err := s.collectSources(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	pantry, err := s.pantry.GetOnHand(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := s.aggregator.Consolidate(sources, pantry)

	var out *shoppinglists.ListDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.lists.WithTx(tx)

		list, err := repo.FindBySourceMenuPlan(ctx, plan.ID)
		switch {
		case err == nil:
			if list, err = repo.LockByID(ctx, list.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock derived list")
			}
			if !regenerate {
				out, err = s.listView(ctx, repo, list)
				return err
			}
			if err := repo.DeleteItemsByList(ctx, list.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear derived list")
			}
			if err := repo.UpdateList(ctx, list.ID, map[string]any{
				"status":       enums.ListStatusActive,
				"completed_at": nil,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset derived list")
			}
		case db.IsNotFound(err):
			list = &models.ShoppingList{
				OwnerUserID:      userID,
				Title:            plan.Title,
				Status:           enums.ListStatusActive,
				SourceMenuPlanID: &plan.ID,
			}
			if err := repo.CreateList(ctx, list); err != nil {
				if db.IsUniqueViolation(err, listUniqueConstraint) {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "shopping list is being generated concurrently")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create derived list")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load derived list")
		}

		if err := repo.CreateItems(ctx, shoppinglists.ItemsFromResult(list.ID, result)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store derived items")
		}
		if err := repo.Touch(ctx, list.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch derived list")
		}
		reloaded, err := repo.FindByID(ctx, list.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload derived list")
		}
		out, err = s.listView(ctx, repo, reloaded)
		return err
	})
	if err != nil {
		return nil, err
	}

	out.Covered = result.Covered
	s.metrics.ObserveConsolidation(metrics.SourceMenuPlan, len(result.Items), result.Covered, result.Reduced)
	logCtx := s.logg.WithListID(s.logg.WithPlanID(ctx, plan.ID.String()), out.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"regenerate": regenerate,
		"items":      len(out.Items),
	}), "menu shopping list generated")
	return out, nil
}

// collectSources turns each entry into a source of parsed recipe lines scaled
// by its portions. Entries whose recipe has since been deleted are skipped.
func (s *service) collectSources(ctx context.Context, planID uuid.UUID) ([]consolidation.Source, error) {
	entries, err := s.repo.ListEntries(ctx, planID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu entries")
	}
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu plan has no entries")
	}

	parsed := map[uuid.UUID][]ingredients.Line{}
	sources := make([]consolidation.Source, 0, len(entries))
	for _, entry := range entries {
		lines, ok := parsed[entry.RecipeID]
		if !ok {
			raw, err := s.recipes.GetIngredientLines(ctx, entry.RecipeID)
			if err != nil {
				if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					return nil, err
				}
				s.logg.Warn(s.logg.WithField(ctx, "recipe_id", entry.RecipeID.String()), "menu entry references a missing recipe")
			}
			lines = ingredients.ParseAll(raw)
			parsed[entry.RecipeID] = lines
		}
		if len(lines) == 0 {
			continue
		}
		sources = append(sources, consolidation.NewSource(lines, int64(entry.Portions)))
	}
	return sources, nil
}

func (s *service) listView(ctx context.Context, repo *shoppinglists.Repository, list *models.ShoppingList) (*shoppinglists.ListDTO, error) {
	items, err := repo.ListItems(ctx, list.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load derived items")
	}
	return shoppinglists.FromModel(list, items, sharing.RoleOwner), nil
}

// ownedPlan loads a plan the user owns. Other users' plans are reported missing.
func (s *service) ownedPlan(ctx context.Context, userID, planID uuid.UUID) (*models.MenuPlan, error) {
	plan, err := s.repo.FindPlan(ctx, planID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "menu plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu plan")
	}
	if plan.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu plan not found")
	}
	return plan, nil
}

// ownedEntry loads an entry on one of the user's plans. Entries on other users'
// plans are reported missing.
func (s *service) ownedEntry(ctx context.Context, userID, entryID uuid.UUID) (*models.MenuEntry, error) {
	entry, err := s.repo.FindEntry(ctx, entryID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "menu entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu entry")
	}
	if _, err := s.ownedPlan(ctx, userID, entry.PlanID); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu entry not found")
		}
		return nil, err
	}
	return entry, nil
}

func lockOwnedPlan(ctx context.Context, repo *Repository, userID, planID uuid.UUID) (*models.MenuPlan, error) {
	plan, err := repo.LockPlan(ctx, planID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "menu plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock menu plan")
	}
	if plan.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu plan not found")
	}
	return plan, nil
}

func validatePortions(portions int) error {
	if portions <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "portions must be positive")
	}
	if portions > MaxPortions {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "portions cannot exceed %d", MaxPortions)
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
