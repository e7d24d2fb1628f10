package shoppinglists

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// CreateListInput is an ad-hoc list built from raw ingredient lines.
type CreateListInput struct {
	OwnerID     uuid.UUID
	Title       string
	Notes       *string
	Ingredients []string
	NetPantry   bool
}

// UpdateListInput changes list metadata; nil fields are left alone.
type UpdateListInput struct {
	Title *string
	Notes *string
}

// ListQuery filters the caller's owned lists.
type ListQuery struct {
	Status enums.ListStatus
	Cursor string
	Limit  int
}

// AddItemInput adds either a raw line or a structured item. Raw wins when set.
type AddItemInput struct {
	Raw      string
	Name     string
	Quantity *decimal.Decimal
	Unit     string
	Category *enums.Category
}

// UpdateItemInput edits an item; nil fields are left alone.
type UpdateItemInput struct {
	Name      *string
	Quantity  *decimal.Decimal
	Unit      *string
	Category  *enums.Category
	Purchased *bool
}

type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ListID        uuid.UUID       `json:"list_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	Category      enums.Category  `json:"category"`
	CategoryLabel string          `json:"category_label"`
	Purchased     bool            `json:"purchased"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ListSummaryDTO is a list without its items.
type ListSummaryDTO struct {
	ID               uuid.UUID        `json:"id"`
	OwnerUserID      uuid.UUID        `json:"owner_user_id"`
	Title            string           `json:"title"`
	Notes            *string          `json:"notes,omitempty"`
	Status           enums.ListStatus `json:"status"`
	SourceMenuPlanID *uuid.UUID       `json:"source_menu_plan_id,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ListDTO is a list with its items and the caller's role on it.
type ListDTO struct {
	ListSummaryDTO
	Role  string    `json:"role"`
	Items []ItemDTO `json:"items"`
	// Covered counts ingredients left off because the pantry already holds them.
	Covered int `json:"pantry_covered,omitempty"`
}

// CategoryGroupDTO is one category section of a list.
type CategoryGroupDTO struct {
	Category  enums.Category `json:"category"`
	Label     string         `json:"label"`
	Count     int            `json:"count"`
	Purchased int            `json:"purchased"`
	Items     []ItemDTO      `json:"items"`
}

// GroupedListDTO presents a list's items by category in display order.
type GroupedListDTO struct {
	ListSummaryDTO
	Role   string             `json:"role"`
	Groups []CategoryGroupDTO `json:"groups"`
}

func ItemFromModel(m *models.ShoppingListItem) ItemDTO {
	return ItemDTO{
		ID:            m.ID,
		ListID:        m.ListID,
		Name:          m.IngredientName,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		Category:      m.Category,
		CategoryLabel: m.Category.Label(),
		Purchased:     m.Purchased,
		UpdatedAt:     m.UpdatedAt,
	}
}

func SummaryFromModel(m *models.ShoppingList) ListSummaryDTO {
	return ListSummaryDTO{
		ID:               m.ID,
		OwnerUserID:      m.OwnerUserID,
		Title:            m.Title,
		Notes:            m.Notes,
		Status:           m.Status,
		SourceMenuPlanID: m.SourceMenuPlanID,
		CompletedAt:      m.CompletedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromModel assembles a list view for a caller with the given role.
func FromModel(list *models.ShoppingList, items []models.ShoppingListItem, role string) *ListDTO {
	dto := &ListDTO{
		ListSummaryDTO: SummaryFromModel(list),
		Role:           role,
		Items:          make([]ItemDTO, 0, len(items)),
	}
	for i := range items {
		dto.Items = append(dto.Items, ItemFromModel(&items[i]))
	}
	return dto
}

func groupByCategory(order []enums.Category, items []models.ShoppingListItem) []CategoryGroupDTO {
	byCategory := map[enums.Category]*CategoryGroupDTO{}
	for i := range items {
		cat := items[i].Category
		if !cat.IsValid() {
			cat = enums.CategoryOther
		}
		g, ok := byCategory[cat]
		if !ok {
			g = &CategoryGroupDTO{Category: cat, Label: cat.Label()}
			byCategory[cat] = g
		}
		g.Items = append(g.Items, ItemFromModel(&items[i]))
		g.Count++
		if items[i].Purchased {
			g.Purchased++
		}
	}

	groups := make([]CategoryGroupDTO, 0, len(byCategory))
	for _, cat := range order {
		if g, ok := byCategory[cat]; ok {
			groups = append(groups, *g)
			delete(byCategory, cat)
		}
	}
	if g, ok := byCategory[enums.CategoryOther]; ok {
		groups = append(groups, *g)
	}
	return groups
}
