package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// ShareGrant gives a grantee Viewer or Editor access to a list once accepted.
type ShareGrant struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ListID        uuid.UUID         `gorm:"column:list_id;type:uuid;not null;uniqueIndex:share_grants_list_grantee_key,priority:1"`
	GrantorUserID uuid.UUID         `gorm:"column:grantor_user_id;type:uuid;not null"`
	GranteeUserID uuid.UUID         `gorm:"column:grantee_user_id;type:uuid;not null;uniqueIndex:share_grants_list_grantee_key,priority:2;index:share_grants_grantee_idx"`
	Role          enums.ShareRole   `gorm:"column:role;type:text;not null"`
	Status        enums.ShareStatus `gorm:"column:status;type:text;not null"`
	AcceptedAt    *time.Time        `gorm:"column:accepted_at"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (g *ShareGrant) BeforeCreate(*gorm.DB) error {
	assignID(&g.ID)
	return nil
}
