package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error
		Activate(ctx context.Context, token string) error
		GetByID(ctx context.Context, userID int64) (*User, error)
		GetByEmail(ctx context.Context, email string) (*User, error)
		Update(ctx context.Context, user *User) error
		SetProfile(ctx context.Context, pictureURL string, userID int64) error
		Delete(ctx context.Context, userID int64) error
		SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
		GetRefreshToken(ctx context.Context, userID int64) (string, error)
		DeleteRefreshToken(ctx context.Context, userID int64) error
	}
	Plans interface {
		List(ctx context.Context) ([]Plan, error)
		GetByID(ctx context.Context, planID string) (*Plan, error)
	}
	Workouts interface {
		List(ctx context.Context, filter WorkoutFilter) ([]WorkoutPlan, error)
		GetByID(ctx context.Context, workoutID int64) (*WorkoutPlan, error)
	}
	Orders interface {
		Create(ctx context.Context, order *Order) error
		GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
		MarkFailed(ctx context.Context, gatewayOrderID, reason string) error
		ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, error)
	}
	Memberships interface {
		GetByUserID(ctx context.Context, userID int64) (*Membership, error)
	}
	Settlements interface {
		Settle(ctx context.Context, params SettleParams) (*SettleResult, error)
	}
	PushTokens interface {
		AddOrUpdate(ctx context.Context, userID int64, token string) error
		Remove(ctx context.Context, userID int64, token string) error
		GetByUserID(ctx context.Context, userID int64) ([]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:       &UsersStore{db},
		Plans:       &PlansStore{db},
		Workouts:    &WorkoutsStore{db},
		Orders:      &OrdersStore{db},
		Memberships: &MembershipsStore{db},
		Settlements: &SettlementsStore{db},
		PushTokens:  &PushTokensStore{db},
	}
}
