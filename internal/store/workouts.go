package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkoutPlan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	MuscleGroup string    `json:"muscle_group"`
	Level       string    `json:"level"` // beginner | intermediate | advanced
	Description string    `json:"description"`
	Exercises   []string  `json:"exercises"`
	CreatedAt   time.Time `json:"created_at"`
}

type WorkoutFilter struct {
	MuscleGroup string
	Level       string
}

type WorkoutsStore struct {
	db *pgxpool.Pool
}

func (s *WorkoutsStore) List(ctx context.Context, filter WorkoutFilter) ([]WorkoutPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, name, muscle_group, level, description, exercises, created_at
		FROM workout_plans
		WHERE ($1 = '' OR muscle_group = $1)
		  AND ($2 = '' OR level = $2)
		ORDER BY name ASC
	`, filter.MuscleGroup, filter.Level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []WorkoutPlan
	for rows.Next() {
		var w WorkoutPlan
		if err := rows.Scan(&w.ID, &w.Name, &w.MuscleGroup, &w.Level, &w.Description, &w.Exercises, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}

	return workouts, rows.Err()
}

func (s *WorkoutsStore) GetByID(ctx context.Context, workoutID int64) (*WorkoutPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var w WorkoutPlan
	err := s.db.QueryRow(ctx, `
		SELECT id, name, muscle_group, level, description, exercises, created_at
		FROM workout_plans
		WHERE id = $1
	`, workoutID).Scan(&w.ID, &w.Name, &w.MuscleGroup, &w.Level, &w.Description, &w.Exercises, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &w, nil
}
