package sharing

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/larder-backend/internal/users"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// RoleOwner is reported for callers who own the list rather than hold a grant.
const RoleOwner = "owner"

// CreateShareInput carries an owner's invitation request.
type CreateShareInput struct {
	ListID            uuid.UUID
	OwnerID           uuid.UUID
	GranteeIdentifier string
	Role              enums.ShareRole
}

// GrantDTO is the public shape of a share grant.
type GrantDTO struct {
	ID            uuid.UUID             `json:"id"`
	ListID        uuid.UUID             `json:"list_id"`
	GrantorUserID uuid.UUID             `json:"grantor_user_id"`
	GranteeUserID uuid.UUID             `json:"grantee_user_id"`
	Grantee       *users.UserSummaryDTO `json:"grantee,omitempty"`
	Role          enums.ShareRole       `json:"role"`
	Status        enums.ShareStatus     `json:"status"`
	AcceptedAt    *time.Time            `json:"accepted_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// InvitationDTO is a pending grant as seen by its grantee.
type InvitationDTO struct {
	GrantDTO
	ListTitle string                `json:"list_title"`
	Grantor   *users.UserSummaryDTO `json:"grantor,omitempty"`
}

// SharedListDTO is a list reachable through an accepted grant.
type SharedListDTO struct {
	ListID    uuid.UUID        `json:"list_id"`
	GrantID   uuid.UUID        `json:"grant_id"`
	Title     string           `json:"title"`
	Status    enums.ListStatus `json:"status"`
	Role      enums.ShareRole  `json:"role"`
	OwnerID   uuid.UUID        `json:"owner_user_id"`
	CreatedAt time.Time        `json:"created_at"`
}

// Access is the outcome of a successful authorization check.
type Access struct {
	List    *models.ShoppingList
	IsOwner bool
	// Role is empty for owners.
	Role enums.ShareRole
}

// RoleName reports "owner" or the granted role.
func (a Access) RoleName() string {
	if a.IsOwner {
		return RoleOwner
	}
	return a.Role.String()
}

func grantFromModel(g *models.ShareGrant) GrantDTO {
	return GrantDTO{
		ID:            g.ID,
		ListID:        g.ListID,
		GrantorUserID: g.GrantorUserID,
		GranteeUserID: g.GranteeUserID,
		Role:          g.Role,
		Status:        g.Status,
		AcceptedAt:    g.AcceptedAt,
		CreatedAt:     g.CreatedAt,
	}
}
