// Package shoppinglists owns shopping lists and their items. Every read and
// write is checked by the sharing service before it touches storage.
package shoppinglists

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/internal/consolidation"
	"github.com/angelmondragon/larder-backend/internal/ingredients"
	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/metrics"
	"github.com/angelmondragon/larder-backend/pkg/pagination"
)

// DefaultMaxItems caps the rows of one list when no limit is configured.
const DefaultMaxItems = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// accessControl is the sharing check. Writers use AuthorizeTx after locking
// the list row so a revoked grant cannot slip a write in.
type accessControl interface {
	Authorize(ctx context.Context, listID, userID uuid.UUID, capability enums.Capability) (*sharing.Access, error)
	AuthorizeTx(ctx context.Context, tx *gorm.DB, listID, userID uuid.UUID, capability enums.Capability) (*sharing.Access, error)
}

// Classifier files ingredients under categories and reports their display order.
type Classifier interface {
	Classify(name string) enums.Category
	Categories() []enums.Category
}

// PantrySource supplies what a user already has on hand.
type PantrySource interface {
	GetOnHand(ctx context.Context, userID uuid.UUID) (consolidation.Pantry, error)
}

// Service manages shopping lists.
type Service interface {
	CreateList(ctx context.Context, input CreateListInput) (*ListDTO, error)
	GetList(ctx context.Context, listID, userID uuid.UUID) (*ListDTO, error)
	ListLists(ctx context.Context, ownerID uuid.UUID, query ListQuery) (pagination.Page[ListSummaryDTO], error)
	GroupedItems(ctx context.Context, listID, userID uuid.UUID) (*GroupedListDTO, error)
	UpdateList(ctx context.Context, listID, userID uuid.UUID, input UpdateListInput) (*ListSummaryDTO, error)
	CompleteList(ctx context.Context, listID, userID uuid.UUID) (*ListSummaryDTO, error)
	DeleteList(ctx context.Context, listID, userID uuid.UUID) error
	AddItem(ctx context.Context, listID, userID uuid.UUID, input AddItemInput) (*ItemDTO, error)
	UpdateItem(ctx context.Context, itemID, userID uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, itemID, userID uuid.UUID) error
}

type ServiceParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       *Repository
	Grants     *sharing.Repository
	Access     accessControl
	Classifier Classifier
	Pantry     PantrySource
	Converter  consolidation.UnitConverter
	Metrics    *metrics.ShoppingMetrics
	Limits     pagination.Limits
	MaxItems   int
	Clock      func() time.Time
}

type service struct {
	logg       *logger.Logger
	db         txRunner
	repo       *Repository
	grants     *sharing.Repository
	access     accessControl
	classifier Classifier
	pantry     PantrySource
	aggregator *consolidation.Aggregator
	metrics    *metrics.ShoppingMetrics
	limits     pagination.Limits
	maxItems   int
	now        func() time.Time
}

// NewService builds the shopping list service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list repository is required")
	case params.Grants == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grant repository is required")
	case params.Access == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access control is required")
	case params.Classifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "classifier is required")
	case params.Pantry == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pantry source is required")
	}
	maxItems := params.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		logg:       params.Logger,
		db:         params.DB,
		repo:       params.Repo,
		grants:     params.Grants,
		access:     params.Access,
		classifier: params.Classifier,
		pantry:     params.Pantry,
		aggregator: consolidation.New(params.Classifier, params.Converter),
		metrics:    params.Metrics,
		limits:     params.Limits,
		maxItems:   maxItems,
		now:        clock,
	}, nil
}

// CreateList parses the lines, consolidates them into one source of scale
// one, optionally nets the owner's pantry, and stores the result.
func (s *service) CreateList(ctx context.Context, input CreateListInput) (*ListDTO, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	lines := ingredients.ParseAll(input.Ingredients)
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one ingredient is required")
	}
	if len(lines) > s.maxItems {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "a list accepts at most %d ingredients", s.maxItems)
	}

	pantry := consolidation.Pantry{}
	if input.NetPantry {
		onHand, err := s.pantry.GetOnHand(ctx, input.OwnerID)
		if err != nil {
			return nil, err
		}
		pantry = onHand
	}

	result := s.aggregator.Consolidate([]consolidation.Source{consolidation.NewSource(lines, 1)}, pantry)

	list := &models.ShoppingList{
		OwnerUserID: input.OwnerID,
		Title:       title,
		Notes:       trimmedOrNil(input.Notes),
		Status:      enums.ListStatusActive,
	}
	var items []models.ShoppingListItem
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateList(ctx, list); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create list")
		}
		items = ItemsFromResult(list.ID, result)
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create list items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveConsolidation(metrics.SourceAdHoc, len(result.Items), result.Covered, result.Reduced)
	s.logg.Info(s.logg.WithFields(s.logg.WithListID(ctx, list.ID.String()), map[string]any{
		"items":   len(items),
		"covered": result.Covered,
	}), "shopping list created")

	dto := FromModel(list, items, sharing.RoleOwner)
	dto.Covered = result.Covered
	return dto, nil
}

func (s *service) GetList(ctx context.Context, listID, userID uuid.UUID) (*ListDTO, error) {
	access, err := s.access.Authorize(ctx, listID, userID, enums.CapabilityRead)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list items")
	}
	return FromModel(access.List, items, access.RoleName()), nil
}

// ListLists pages through the lists the caller owns, newest first.
func (s *service) ListLists(ctx context.Context, ownerID uuid.UUID, query ListQuery) (pagination.Page[ListSummaryDTO], error) {
	if query.Status != "" && !query.Status.IsValid() {
		return pagination.Page[ListSummaryDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
			WithDetails(map[string]any{"status": query.Status})
	}
	cursor, err := pagination.ParseCursor(query.Cursor)
	if err != nil {
		return pagination.Page[ListSummaryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := s.limits.Normalize(query.Limit)

	rows, err := s.repo.ListOwned(ctx, listOwnedParams{
		OwnerID: ownerID,
		Status:  query.Status,
		Cursor:  cursor,
		Limit:   limit + 1,
	})
	if err != nil {
		return pagination.Page[ListSummaryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shopping lists")
	}

	page := pagination.Trim(rows, limit, func(l models.ShoppingList) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	out := pagination.Page[ListSummaryDTO]{
		Items:      make([]ListSummaryDTO, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		out.Items = append(out.Items, SummaryFromModel(&page.Items[i]))
	}
	return out, nil
}

// GroupedItems returns the list's items sectioned by category.
func (s *service) GroupedItems(ctx context.Context, listID, userID uuid.UUID) (*GroupedListDTO, error) {
	access, err := s.access.Authorize(ctx, listID, userID, enums.CapabilityRead)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list items")
	}
	return &GroupedListDTO{
		ListSummaryDTO: SummaryFromModel(access.List),
		Role:           access.RoleName(),
		Groups:         groupByCategory(s.classifier.Categories(), items),
	}, nil
}

func (s *service) UpdateList(ctx context.Context, listID, userID uuid.UUID, input UpdateListInput) (*ListSummaryDTO, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		updates["title"] = title
	}
	if input.Notes != nil {
		updates["notes"] = trimmedOrNil(input.Notes)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	return s.mutateList(ctx, listID, userID, func(repo *Repository, list *models.ShoppingList) error {
		return repo.UpdateList(ctx, list.ID, updates)
	})
}

// CompleteList marks a list as done. Completing it again changes nothing.
func (s *service) CompleteList(ctx context.Context, listID, userID uuid.UUID) (*ListSummaryDTO, error) {
	return s.mutateList(ctx, listID, userID, func(repo *Repository, list *models.ShoppingList) error {
		if list.Status == enums.ListStatusCompleted {
			return nil
		}
		return repo.UpdateList(ctx, list.ID, map[string]any{
			"status":       enums.ListStatusCompleted,
			"completed_at": s.now().UTC(),
		})
	})
}

// DeleteList removes a list with its items and grants. Only the owner may.
func (s *service) DeleteList(ctx context.Context, listID, userID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := s.lockForWrite(ctx, tx, repo, listID, userID, enums.CapabilityRead)
		if err != nil {
			return err
		}
		if list.OwnerUserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can delete a list")
		}
		if err := repo.DeleteItemsByList(ctx, listID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete list items")
		}
		if err := s.grants.WithTx(tx).DeleteByList(ctx, listID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete list grants")
		}
		if err := repo.DeleteList(ctx, listID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete list")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithListID(ctx, listID.String()), "shopping list deleted")
	return nil
}

// AddItem adds a line to a list. A row with the same (name, unit) absorbs the
// quantity instead of producing a duplicate.
func (s *service) AddItem(ctx context.Context, listID, userID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	line, err := lineFromInput(input)
	if err != nil {
		return nil, err
	}
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}

	name, unit := consolidation.Key(line.Name, line.Unit)
	var saved models.ShoppingListItem
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.lockForWrite(ctx, tx, repo, listID, userID, enums.CapabilityWrite); err != nil {
			return err
		}

		existing, err := repo.FindItemByKey(ctx, listID, name, unit)
		switch {
		case err == nil:
			total := existing.Quantity.Add(line.Quantity)
			if total.GreaterThan(ingredients.MaxQuantity) {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity cannot exceed %s", ingredients.MaxQuantity)
			}
			existing.Quantity = total
			existing.Purchased = false
			if input.Category != nil {
				existing.Category = *input.Category
			}
			if err := repo.SaveItem(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge item")
			}
			saved = *existing
		case db.IsNotFound(err):
			count, err := repo.CountItems(ctx, listID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count items")
			}
			if count >= int64(s.maxItems) {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "a list holds at most %d items", s.maxItems)
			}
			saved = models.ShoppingListItem{
				ListID:         listID,
				IngredientName: name,
				Quantity:       line.Quantity,
				Unit:           unit,
				Category:       s.categoryFor(name, input.Category),
			}
			if err := repo.CreateItem(ctx, &saved); err != nil {
				if db.IsUniqueViolation(err, ItemUniqueConstraint) {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "item already exists")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup item")
		}
		return touch(ctx, repo, listID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveConsolidation(metrics.SourceItemAdd, 1, 0, 0)
	dto := ItemFromModel(&saved)
	return &dto, nil
}

// UpdateItem edits quantity, name, unit, category or the purchased flag.
// Renaming onto another row's (name, unit) is a conflict.
func (s *service) UpdateItem(ctx context.Context, itemID, userID uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	if input.Quantity != nil {
		qty, err := storableQuantity(*input.Quantity)
		if err != nil {
			return nil, err
		}
		input.Quantity = &qty
	}
	if input.Category != nil && !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
	}

	var saved models.ShoppingListItem
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.lockItem(ctx, tx, repo, itemID, userID)
		if err != nil {
			return err
		}

		name, unit := current.IngredientName, current.Unit
		if input.Name != nil {
			name = *input.Name
		}
		if input.Unit != nil {
			unit = *input.Unit
		}
		name, unit = consolidation.Key(name, unit)
		if name != current.IngredientName || unit != current.Unit {
			other, err := repo.FindItemByKey(ctx, current.ListID, name, unit)
			if err == nil && other.ID != current.ID {
				return pkgerrors.New(pkgerrors.CodeConflict, "another item already uses this name and unit").
					WithDetails(map[string]any{"item_id": other.ID})
			}
			if err != nil && !db.IsNotFound(err) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup item")
			}
			if input.Category == nil && name != current.IngredientName {
				current.Category = s.classifier.Classify(name)
			}
			current.IngredientName, current.Unit = name, unit
		}
		if input.Quantity != nil {
			current.Quantity = *input.Quantity
		}
		if input.Category != nil {
			current.Category = *input.Category
		}
		if input.Purchased != nil {
			current.Purchased = *input.Purchased
		}

		if err := repo.SaveItem(ctx, current); err != nil {
			if db.IsUniqueViolation(err, ItemUniqueConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another item already uses this name and unit")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
		}
		saved = *current
		return touch(ctx, repo, current.ListID)
	})
	if err != nil {
		return nil, err
	}
	dto := ItemFromModel(&saved)
	return &dto, nil
}

func (s *service) DeleteItem(ctx context.Context, itemID, userID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.lockItem(ctx, tx, repo, itemID, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
		}
		return touch(ctx, repo, item.ListID)
	})
}

// lockForWrite locks the list row and then checks the caller's capability
// inside the same transaction.
func (s *service) lockForWrite(ctx context.Context, tx *gorm.DB, repo *Repository, listID, userID uuid.UUID, capability enums.Capability) (*models.ShoppingList, error) {
	list, err := repo.LockByID(ctx, listID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "list not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock list")
	}
	if _, err := s.access.AuthorizeTx(ctx, tx, listID, userID, capability); err != nil {
		return nil, err
	}
	return list, nil
}

// lockItem loads an item, locks its list and checks write access. Items on
// lists the caller cannot see are reported missing.
func (s *service) lockItem(ctx context.Context, tx *gorm.DB, repo *Repository, itemID, userID uuid.UUID) (*models.ShoppingListItem, error) {
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err)
	}
	if _, err := s.lockForWrite(ctx, tx, repo, item.ListID, userID, enums.CapabilityWrite); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, err
	}
	// reread under the lock
	item, err = repo.FindItem(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err)
	}
	return item, nil
}

func (s *service) mutateList(ctx context.Context, listID, userID uuid.UUID, apply func(repo *Repository, list *models.ShoppingList) error) (*ListSummaryDTO, error) {
	var updated *models.ShoppingList
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := s.lockForWrite(ctx, tx, repo, listID, userID, enums.CapabilityWrite)
		if err != nil {
			return err
		}
		if err := apply(repo, list); err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update list")
		}
		updated, err = repo.FindByID(ctx, listID)
		return mapListErr(err)
	})
	if err != nil {
		return nil, err
	}
	dto := SummaryFromModel(updated)
	return &dto, nil
}

func (s *service) categoryFor(name string, override *enums.Category) enums.Category {
	if override != nil {
		return *override
	}
	return s.classifier.Classify(name)
}

// ItemsFromResult converts consolidated rows into list items.
func ItemsFromResult(listID uuid.UUID, result consolidation.Result) []models.ShoppingListItem {
	items := make([]models.ShoppingListItem, 0, len(result.Items))
	for _, it := range result.Items {
		items = append(items, models.ShoppingListItem{
			ListID:         listID,
			IngredientName: it.Name,
			Quantity:       it.Quantity,
			Unit:           it.Unit,
			Category:       it.Category,
		})
	}
	return items
}

func lineFromInput(input AddItemInput) (ingredients.Line, error) {
	if raw := strings.TrimSpace(input.Raw); raw != "" {
		line := ingredients.Parse(raw)
		if !line.Quantity.IsPositive() {
			return ingredients.Line{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		return line, nil
	}
	if strings.TrimSpace(input.Name) == "" {
		return ingredients.Line{}, pkgerrors.New(pkgerrors.CodeValidation, "either raw or name is required")
	}
	qty := decimal.NewFromInt(1)
	if input.Quantity != nil {
		var err error
		if qty, err = storableQuantity(*input.Quantity); err != nil {
			return ingredients.Line{}, err
		}
	}
	return ingredients.Line{Name: input.Name, Quantity: qty, Unit: input.Unit}, nil
}

// storableQuantity accepts positive quantities that fit storage, rounded to
// its precision.
func storableQuantity(q decimal.Decimal) (decimal.Decimal, error) {
	if !q.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	rounded, ok := ingredients.NormalizeQuantity(q)
	if !ok {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 0.001 and %s", ingredients.MaxQuantity)
	}
	return rounded, nil
}

func touch(ctx context.Context, repo *Repository, listID uuid.UUID) error {
	if err := repo.Touch(ctx, listID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch list")
	}
	return nil
}

func mapListErr(err error) error {
	if err == nil {
		return nil
	}
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "list not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list")
}

func mapItemErr(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
