package users

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
)

// UserSummaryDTO is the public identity shown to collaborators on a list.
type UserSummaryDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
}

func SummaryFromModel(u *models.User) *UserSummaryDTO {
	if u == nil {
		return nil
	}
	return &UserSummaryDTO{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
}
