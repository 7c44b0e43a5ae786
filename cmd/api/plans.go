package main

import (
	"errors"
	"net/http"

	"triplea/internal/store"

	"github.com/go-chi/chi/v5"
)

// listPlansHandler godoc
//
//	@Summary		Lists membership plans
//	@Tags			plans
//	@Produce		json
//	@Success		200	{array}	store.Plan
//	@Router			/plans [get]
func (app *application) listPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := app.store.Plans.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, plans); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getPlanHandler godoc
//
//	@Summary		Fetches one membership plan
//	@Tags			plans
//	@Produce		json
//	@Param			planID	path		string	true	"Plan id (monthly, quarterly, yearly)"
//	@Success		200		{object}	store.Plan
//	@Failure		404		{object}	error
//	@Router			/plans/{planID} [get]
func (app *application) getPlanHandler(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	plan, err := app.store.Plans.GetByID(r.Context(), planID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, plan); err != nil {
		app.internalServerError(w, r, err)
	}
}
