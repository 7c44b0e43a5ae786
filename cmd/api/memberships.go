package main

import (
	"errors"
	"net/http"

	"triplea/internal/store"
)

// getMyMembershipHandler godoc
//
//	@Summary		Returns the authenticated user's membership
//	@Description	The rest of the app gates feature access on this record
//	@Tags			memberships
//	@Produce		json
//	@Success		200	{object}	store.Membership
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/memberships/me [get]
func (app *application) getMyMembershipHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	membership, err := app.store.Memberships.GetByUserID(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, membership); err != nil {
		app.internalServerError(w, r, err)
	}
}
