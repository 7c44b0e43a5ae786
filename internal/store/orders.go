package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Order statuses. Terminal states are final: there is no retry transition.
const (
	OrderCreated = "created"
	OrderSuccess = "success"
	OrderFailed  = "failed"
)

// Order is the local record of a gateway-side order. Rows are created by the
// order initiator with status "created" and only ever mutated by the payment
// verifier; they are never deleted.
type Order struct {
	ID               int64     `json:"id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	UserID           int64     `json:"user_id"`
	PlanID           string    `json:"plan_id"`
	AmountMinor      int64     `json:"amount_minor"`
	Currency         string    `json:"currency"`
	Receipt          string    `json:"receipt"`
	Status           string    `json:"status"`
	GatewayPaymentID *string   `json:"gateway_payment_id,omitempty"`
	FailureReason    *string   `json:"failure_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type OrdersStore struct {
	db *pgxpool.Pool
}

func (s *OrdersStore) Create(ctx context.Context, order *Order) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, `
		INSERT INTO orders (gateway_order_id, user_id, plan_id, amount_minor, currency, receipt, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, order.GatewayOrderID, order.UserID, order.PlanID, order.AmountMinor, order.Currency, order.Receipt, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "orders_gateway_order_id_key") {
			return ErrConflict
		}
		return err
	}

	return nil
}

func (s *OrdersStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var o Order
	err := s.db.QueryRow(ctx, `
		SELECT id, gateway_order_id, user_id, plan_id, amount_minor, currency, receipt, status,
		       gateway_payment_id, failure_reason, created_at, updated_at
		FROM orders
		WHERE gateway_order_id = $1
	`, gatewayOrderID).Scan(
		&o.ID, &o.GatewayOrderID, &o.UserID, &o.PlanID, &o.AmountMinor, &o.Currency, &o.Receipt, &o.Status,
		&o.GatewayPaymentID, &o.FailureReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &o, nil
}

// MarkFailed transitions a pending order to "failed". Orders already settled
// stay settled: the WHERE clause only matches status "created".
func (s *OrdersStore) MarkFailed(ctx context.Context, gatewayOrderID, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, failure_reason = $2, updated_at = now()
		WHERE gateway_order_id = $3 AND status = $4
	`, OrderFailed, reason, gatewayOrderID, OrderCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *OrdersStore) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, gateway_order_id, user_id, plan_id, amount_minor, currency, receipt, status,
		       gateway_payment_id, failure_reason, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.GatewayOrderID, &o.UserID, &o.PlanID, &o.AmountMinor, &o.Currency, &o.Receipt, &o.Status,
			&o.GatewayPaymentID, &o.FailureReason, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
