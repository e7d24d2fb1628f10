// Package sharing decides who may touch a shopping list. Owners always may;
// everybody else needs an accepted grant whose role carries the capability.
package sharing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/larder-backend/internal/users"
	"github.com/angelmondragon/larder-backend/pkg/db"
	"github.com/angelmondragon/larder-backend/pkg/db/models"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/larder-backend/pkg/errors"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userDirectory interface {
	FindByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Service is the access-control manager for shopping lists.
type Service interface {
	CreateShare(ctx context.Context, input CreateShareInput) (*GrantDTO, error)
	AcceptShare(ctx context.Context, grantID, userID uuid.UUID) (*GrantDTO, error)
	RemoveShare(ctx context.Context, grantID, userID uuid.UUID) error
	Authorize(ctx context.Context, listID, userID uuid.UUID, capability enums.Capability) (*Access, error)
	AuthorizeTx(ctx context.Context, tx *gorm.DB, listID, userID uuid.UUID, capability enums.Capability) (*Access, error)
	ListGrants(ctx context.Context, listID, ownerID uuid.UUID) ([]GrantDTO, error)
	PendingInvitations(ctx context.Context, userID uuid.UUID) ([]InvitationDTO, error)
	SharedWithMe(ctx context.Context, userID uuid.UUID) ([]SharedListDTO, error)
}

type ServiceParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    *Repository
	Users   userDirectory
	Metrics *metrics.ShoppingMetrics
	Clock   func() time.Time
}

type service struct {
	logg    *logger.Logger
	db      txRunner
	repo    *Repository
	users   userDirectory
	metrics *metrics.ShoppingMetrics
	now     func() time.Time
}

// NewService builds the sharing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "share repository is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user directory is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		logg:    params.Logger,
		db:      params.DB,
		repo:    params.Repo,
		users:   params.Users,
		metrics: params.Metrics,
		now:     clock,
	}, nil
}

// CreateShare invites a user to a list. The grant starts pending and gives no
// access until the grantee accepts it.
func (s *service) CreateShare(ctx context.Context, input CreateShareInput) (*GrantDTO, error) {
	if input.ListID == uuid.Nil || input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "list id and owner id are required")
	}
	identifier := strings.TrimSpace(input.GranteeIdentifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grantee identifier is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be viewer or editor").
			WithDetails(map[string]any{"role": input.Role})
	}

	var created models.ShareGrant
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.ownedList(ctx, repo, input.ListID, input.OwnerID); err != nil {
			return err
		}

		grantee, err := s.users.FindByEmailOrUsername(ctx, identifier)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrGranteeNotFound, "grantee not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup grantee")
		}
		if grantee.ID == input.OwnerID {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrSelfShare, "cannot share a list with its owner")
		}

		if _, err := repo.FindByListAndGrantee(ctx, input.ListID, grantee.ID); err == nil {
			return duplicateShare(nil)
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing grant")
		}

		created = models.ShareGrant{
			ListID:        input.ListID,
			GrantorUserID: input.OwnerID,
			GranteeUserID: grantee.ID,
			Role:          input.Role,
			Status:        enums.ShareStatusPending,
		}
		if err := repo.Create(ctx, &created); err != nil {
			if db.IsUniqueViolation(err, grantUniqueConstraint) {
				return duplicateShare(err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create grant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncShareTransition(metrics.TransitionInvited)
	logCtx := s.logg.WithGrantID(s.logg.WithListID(ctx, input.ListID.String()), created.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "role", created.Role), "share invitation created")

	dto := grantFromModel(&created)
	return &dto, nil
}

// AcceptShare moves a pending grant to accepted. Only the grantee may accept;
// anyone else is told the grant does not exist. Accepting twice is a no-op.
func (s *service) AcceptShare(ctx context.Context, grantID, userID uuid.UUID) (*GrantDTO, error) {
	var (
		grant    *models.ShareGrant
		accepted bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		grant, err = s.loadGrant(ctx, repo, grantID)
		if err != nil {
			return err
		}
		if grant.GranteeUserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "share not found")
		}
		if grant.Status == enums.ShareStatusAccepted {
			return nil
		}

		at := s.now().UTC()
		accepted, err = repo.MarkAccepted(ctx, grant.ID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept grant")
		}
		grant.Status = enums.ShareStatusAccepted
		if accepted {
			grant.AcceptedAt = &at
			return nil
		}
		// a concurrent accept won the race; report its timestamp
		grant, err = s.loadGrant(ctx, repo, grantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if accepted {
		s.metrics.IncShareTransition(metrics.TransitionAccepted)
		s.logg.Info(s.logg.WithGrantID(s.logg.WithListID(ctx, grant.ListID.String()), grant.ID.String()), "share invitation accepted")
	}
	dto := grantFromModel(grant)
	return &dto, nil
}

// RemoveShare deletes a grant in any state. Grantor and grantee may both do
// it; declining an invitation is removal.
func (s *service) RemoveShare(ctx context.Context, grantID, userID uuid.UUID) error {
	var grant *models.ShareGrant
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		grant, err = s.loadGrant(ctx, repo, grantID)
		if err != nil {
			return err
		}
		if grant.GrantorUserID != userID && grant.GranteeUserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the grantor or grantee can remove a share")
		}
		if _, err := repo.LockList(ctx, grant.ListID); err != nil && !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock list")
		}
		if err := repo.Delete(ctx, grant.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete grant")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncShareTransition(metrics.TransitionRemoved)
	s.logg.Info(s.logg.WithGrantID(s.logg.WithListID(ctx, grant.ListID.String()), grant.ID.String()), "share removed")
	return nil
}

// Authorize checks capability on a list. Callers without any accepted grant
// get NotFound so list existence does not leak; an accepted viewer asking to
// write gets Forbidden.
func (s *service) Authorize(ctx context.Context, listID, userID uuid.UUID, capability enums.Capability) (*Access, error) {
	return s.authorize(ctx, s.repo, listID, userID, capability)
}

// AuthorizeTx runs the same check inside tx. Writers call it after locking the
// list so the grant they rely on cannot be removed before they commit.
func (s *service) AuthorizeTx(ctx context.Context, tx *gorm.DB, listID, userID uuid.UUID, capability enums.Capability) (*Access, error) {
	return s.authorize(ctx, s.repo.WithTx(tx), listID, userID, capability)
}

func (s *service) authorize(ctx context.Context, repo *Repository, listID, userID uuid.UUID, capability enums.Capability) (*Access, error) {
	if listID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list not found")
	}

	list, err := repo.FindList(ctx, listID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "list not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list")
	}
	if list.OwnerUserID == userID {
		return &Access{List: list, IsOwner: true}, nil
	}

	grant, err := repo.FindByListAndGrantee(ctx, listID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grant")
	}
	if grant.Status != enums.ShareStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "list not found")
	}
	if !grant.Role.Allows(capability) {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "%s role cannot %s this list", grant.Role, capability)
	}
	return &Access{List: list, Role: grant.Role}, nil
}

// ListGrants returns every grant of a list to its owner.
func (s *service) ListGrants(ctx context.Context, listID, ownerID uuid.UUID) ([]GrantDTO, error) {
	if _, err := s.ownedList(ctx, s.repo, listID, ownerID); err != nil {
		return nil, err
	}
	grants, err := s.repo.ListByList(ctx, listID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list grants")
	}

	ids := make([]uuid.UUID, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.GranteeUserID)
	}
	people, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grantees")
	}

	out := make([]GrantDTO, 0, len(grants))
	for i := range grants {
		dto := grantFromModel(&grants[i])
		if u, ok := people[grants[i].GranteeUserID]; ok {
			dto.Grantee = users.SummaryFromModel(&u)
		}
		out = append(out, dto)
	}
	return out, nil
}

// PendingInvitations lists grants waiting for the user's answer.
func (s *service) PendingInvitations(ctx context.Context, userID uuid.UUID) ([]InvitationDTO, error) {
	grants, err := s.repo.ListForGrantee(ctx, userID, enums.ShareStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invitations")
	}

	listIDs := make([]uuid.UUID, 0, len(grants))
	grantorIDs := make([]uuid.UUID, 0, len(grants))
	for _, g := range grants {
		listIDs = append(listIDs, g.ListID)
		grantorIDs = append(grantorIDs, g.GrantorUserID)
	}
	lists, err := s.repo.FindListsByIDs(ctx, listIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invited lists")
	}
	grantors, err := s.users.FindByIDs(ctx, grantorIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grantors")
	}

	out := make([]InvitationDTO, 0, len(grants))
	for i := range grants {
		list, ok := lists[grants[i].ListID]
		if !ok {
			continue
		}
		inv := InvitationDTO{GrantDTO: grantFromModel(&grants[i]), ListTitle: list.Title}
		if u, ok := grantors[grants[i].GrantorUserID]; ok {
			inv.Grantor = users.SummaryFromModel(&u)
		}
		out = append(out, inv)
	}
	return out, nil
}

// SharedWithMe lists the lists the user reaches through accepted grants.
func (s *service) SharedWithMe(ctx context.Context, userID uuid.UUID) ([]SharedListDTO, error) {
	grants, err := s.repo.ListForGrantee(ctx, userID, enums.ShareStatusAccepted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shared grants")
	}
	ids := make([]uuid.UUID, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.ListID)
	}
	lists, err := s.repo.FindListsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shared lists")
	}

	out := make([]SharedListDTO, 0, len(grants))
	for _, g := range grants {
		list, ok := lists[g.ListID]
		if !ok {
			continue
		}
		out = append(out, SharedListDTO{
			ListID:    list.ID,
			GrantID:   g.ID,
			Title:     list.Title,
			Status:    list.Status,
			Role:      g.Role,
			OwnerID:   list.OwnerUserID,
			CreatedAt: list.CreatedAt,
		})
	}
	return out, nil
}

// ownedList loads a list and checks ownership. A caller with an accepted
// grant learns they are not the owner; anyone else sees NotFound.
func (s *service) ownedList(ctx context.Context, repo *Repository, listID, userID uuid.UUID) (*models.ShoppingList, error) {
	list, err := repo.FindList(ctx, listID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "list not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load list")
	}
	if list.OwnerUserID == userID {
		return list, nil
	}

	grant, err := repo.FindByListAndGrantee(ctx, listID, userID)
	switch {
	case err == nil && grant.Status == enums.ShareStatusAccepted:
		return nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrNotOwner, "only the owner can manage shares")
	case err == nil || db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotOwner, "list not found")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grant")
	}
}

func (s *service) loadGrant(ctx context.Context, repo *Repository, id uuid.UUID) (*models.ShareGrant, error) {
	grant, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "share not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grant")
	}
	return grant, nil
}

func duplicateShare(cause error) error {
	if cause != nil {
		cause = errors.Join(ErrDuplicateShare, cause)
	} else {
		cause = ErrDuplicateShare
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, "list is already shared with this user")
}
