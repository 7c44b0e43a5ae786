package main

import (
	"errors"
	"net/http"
	"strconv"

	"triplea/internal/store"

	"github.com/go-chi/chi/v5"
)

// listWorkoutsHandler godoc
//
//	@Summary		Lists workout plans
//	@Tags			workouts
//	@Produce		json
//	@Param			muscle_group	query	string	false	"Filter by muscle group"
//	@Param			level			query	string	false	"Filter by level"
//	@Success		200				{array}	store.WorkoutPlan
//	@Router			/workouts [get]
func (app *application) listWorkoutsHandler(w http.ResponseWriter, r *http.Request) {
	filter := store.WorkoutFilter{
		MuscleGroup: r.URL.Query().Get("muscle_group"),
		Level:       r.URL.Query().Get("level"),
	}

	workouts, err := app.store.Workouts.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, workouts); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getWorkoutHandler godoc
//
//	@Summary		Fetches one workout plan
//	@Tags			workouts
//	@Produce		json
//	@Param			workoutID	path		int	true	"Workout id"
//	@Success		200			{object}	store.WorkoutPlan
//	@Failure		404			{object}	error
//	@Router			/workouts/{workoutID} [get]
func (app *application) getWorkoutHandler(w http.ResponseWriter, r *http.Request) {
	workoutID, err := strconv.ParseInt(chi.URLParam(r, "workoutID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	workout, err := app.store.Workouts.GetByID(r.Context(), workoutID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, workout); err != nil {
		app.internalServerError(w, r, err)
	}
}
