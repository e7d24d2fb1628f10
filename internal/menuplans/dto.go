package menuplans

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// WeekStartLayout is the wire format of a plan's week start.
const WeekStartLayout = "2006-01-02"

// MaxPortions bounds how far a single entry scales its recipe.
const MaxPortions = 100

type CreatePlanInput struct {
	Title       string
	Description *string
	WeekStart   time.Time
	// Active defaults to true; activating a plan deactivates the user's others.
	Active *bool
}

// UpdatePlanInput changes only the fields that are set.
type UpdatePlanInput struct {
	Title       *string
	Description *string
	Active      *bool
}

type AddEntryInput struct {
	RecipeID  uuid.UUID
	DayOfWeek int
	MealType  enums.MealType
	Portions  int
	Notes     *string
}

// UpdateEntryInput changes only the fields that are set.
type UpdateEntryInput struct {
	RecipeID  *uuid.UUID
	DayOfWeek *int
	MealType  *enums.MealType
	Portions  *int
	Notes     *string
	Completed *bool
}

type EntryDTO struct {
	ID          uuid.UUID      `json:"id"`
	PlanID      uuid.UUID      `json:"plan_id"`
	RecipeID    uuid.UUID      `json:"recipe_id"`
	DayOfWeek   int            `json:"day_of_week"`
	MealType    enums.MealType `json:"meal_type"`
	Portions    int            `json:"portions"`
	Notes       *string        `json:"notes,omitempty"`
	Completed   bool           `json:"completed"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

type PlanDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	WeekStart   string     `json:"week_start"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Entries     []EntryDTO `json:"entries,omitempty"`
}

func entryFromModel(m *models.MenuEntry) EntryDTO {
	return EntryDTO{
		ID:          m.ID,
		PlanID:      m.PlanID,
		RecipeID:    m.RecipeID,
		DayOfWeek:   m.DayOfWeek,
		MealType:    m.MealType,
		Portions:    m.Portions,
		Notes:       m.Notes,
		Completed:   m.Completed,
		CompletedAt: m.CompletedAt,
	}
}

func planFromModel(m *models.MenuPlan, entries []models.MenuEntry) PlanDTO {
	dto := PlanDTO{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		WeekStart:   m.WeekStart.Format(WeekStartLayout),
		Active:      m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if entries != nil {
		dto.Entries = make([]EntryDTO, 0, len(entries))
		for i := range entries {
			dto.Entries = append(dto.Entries, entryFromModel(&entries[i]))
		}
	}
	return dto
}
