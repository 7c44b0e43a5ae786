package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Membership grants a user access to gated features for a time window. One row
// per user: a new purchase overwrites the previous window.
type Membership struct {
	UserID        int64     `json:"user_id"`
	PlanID        string    `json:"plan_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Active        bool      `json:"active"`
	LastPaymentID string    `json:"last_payment_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type MembershipsStore struct {
	db *pgxpool.Pool
}

func (s *MembershipsStore) GetByUserID(ctx context.Context, userID int64) (*Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var m Membership
	err := s.db.QueryRow(ctx, `
		SELECT user_id, plan_id, start_date, end_date, active, last_payment_id, created_at, updated_at
		FROM memberships
		WHERE user_id = $1
	`, userID).Scan(&m.UserID, &m.PlanID, &m.StartDate, &m.EndDate, &m.Active, &m.LastPaymentID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &m, nil
}
