package controllers

import (
	"net/http"

	"github.com/angelmondragon/larder-backend/api/responses"
	"github.com/angelmondragon/larder-backend/api/validators"
	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/pkg/enums"
	"github.com/angelmondragon/larder-backend/pkg/logger"
)

// createSharePayload names the grantee by email or username.
type createSharePayload struct {
	Grantee string `json:"grantee" validate:"notblank,max=320"`
	Role    string `json:"role" validate:"required,oneof=viewer editor"`
}

func ShareCreate(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "sharing")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		listID, err := validators.ParseUUIDParam(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createSharePayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		grant, err := svc.CreateShare(r.Context(), sharing.CreateShareInput{
			ListID:            listID,
			OwnerID:           userID,
			GranteeIdentifier: body.Grantee,
			Role:              enums.ShareRole(body.Role),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, grant)
	}
}

// ShareIndex lists every grant on a list the caller owns.
func ShareIndex(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "sharing")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		listID, err := validators.ParseUUIDParam(r, "listID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		grants, err := svc.ListGrants(r.Context(), listID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, grants)
	}
}

func SharePending(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "sharing")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		invitations, err := svc.PendingInvitations(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invitations)
	}
}

func ShareAccept(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "sharing")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		grantID, err := validators.ParseUUIDParam(r, "shareID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		grant, err := svc.AcceptShare(r.Context(), grantID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, grant)
	}
}

// ShareRemove revokes (grantor) or declines/leaves (grantee) a share.
func ShareRemove(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "sharing")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		grantID, err := validators.ParseUUIDParam(r, "shareID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveShare(r.Context(), grantID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
