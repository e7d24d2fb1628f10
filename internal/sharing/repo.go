package sharing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

const grantUniqueConstraint = "share_grants_list_grantee_key"

// Repository persists share grants.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a grants repository to the given DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindList loads the list a grant points at.
func (r *Repository) FindList(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := r.db.WithContext(ctx).First(&list, "id = ?", listID).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// LockList loads a list and holds its row lock until the transaction ends.
// List mutations take the same lock, so a grant change and a write on the
// list never interleave.
func (r *Repository) LockList(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&list, "id = ?", listID).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// FindListsByIDs loads lists keyed by id.
func (r *Repository) FindListsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ShoppingList, error) {
	out := make(map[uuid.UUID]models.ShoppingList, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ShoppingList
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, l := range rows {
		out[l.ID] = l
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, grant *models.ShareGrant) error {
	return r.db.WithContext(ctx).Create(grant).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShareGrant, error) {
	var grant models.ShareGrant
	if err := r.db.WithContext(ctx).First(&grant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// FindByListAndGrantee returns the single grant for a (list, grantee) pair.
func (r *Repository) FindByListAndGrantee(ctx context.Context, listID, granteeID uuid.UUID) (*models.ShareGrant, error) {
	var grant models.ShareGrant
	err := r.db.WithContext(ctx).
		Where("list_id = ? AND grantee_user_id = ?", listID, granteeID).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// MarkAccepted flips a pending grant to accepted. It reports whether a row changed.
func (r *Repository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ShareGrant{}).
		Where("id = ? AND status = ?", id, enums.ShareStatusPending).
		Updates(map[string]any{
			"status":      enums.ShareStatusAccepted,
			"accepted_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShareGrant{}, "id = ?", id).Error
}

// DeleteByList removes every grant of a list.
func (r *Repository) DeleteByList(ctx context.Context, listID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&models.ShareGrant{}).Error
}

// ListByList returns the grants of a list, oldest first.
func (r *Repository) ListByList(ctx context.Context, listID uuid.UUID) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&grants).Error
	return grants, err
}

// ListForGrantee returns the grants addressed to a user in the given status, newest first.
func (r *Repository) ListForGrantee(ctx context.Context, granteeID uuid.UUID, status enums.ShareStatus) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := r.db.WithContext(ctx).
		Where("grantee_user_id = ? AND status = ?", granteeID, status).
		Order("created_at DESC").
		Order("id DESC").
		Find(&grants).Error
	return grants, err
}
