package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Plan is a purchasable membership plan. Price is in rupees (major units);
// the gateway adapter converts to paise at order time.
type Plan struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Price          int64     `json:"price"`
	DurationMonths int       `json:"duration_months"`
	Features       []string  `json:"features"`
	CreatedAt      time.Time `json:"created_at"`
}

// WindowFrom computes the membership window a captured payment for this plan
// buys, starting at start. Month arithmetic follows time.AddDate, so a
// quarterly plan paid on 2024-01-01 runs until 2024-04-01.
func (p *Plan) WindowFrom(start time.Time) (time.Time, time.Time) {
	return start, start.AddDate(0, p.DurationMonths, 0)
}

type PlansStore struct {
	db *pgxpool.Pool
}

func (s *PlansStore) List(ctx context.Context) ([]Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, duration_months, features, created_at
		FROM membership_plans
		ORDER BY duration_months ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &p.Features, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

func (s *PlansStore) GetByID(ctx context.Context, planID string) (*Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var p Plan
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price, duration_months, features, created_at
		FROM membership_plans
		WHERE id = $1
	`, planID).Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &p.Features, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}
