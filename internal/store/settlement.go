package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettleParams describes a gateway-verified, captured payment ready to be
// applied to local state. Callers must have verified the signature and the
// gateway-reported capture before building one of these.
type SettleParams struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Method           string
	UserID           int64
	PlanID           string
	StartDate        time.Time
	EndDate          time.Time
}

type SettleResult struct {
	// AlreadyProcessed is true when this payment id was settled by an earlier
	// confirmation (client callback and webhook racing each other).
	AlreadyProcessed bool
	Membership       *Membership
}

type SettlementsStore struct {
	db *pgxpool.Pool
}

// Settle applies a captured payment in one transaction:
//
//  1. claim the payment id in payment_events; a second confirmation for the
//     same payment finds the row taken and returns without writing anything
//  2. transition the order created -> success
//  3. upsert the user's membership row with the new window
//
// The payment_events insert is the idempotency guard: the unique key on
// gateway_payment_id makes the first confirmation win and every replay a no-op.
func (s *SettlementsStore) Settle(ctx context.Context, params SettleParams) (*SettleResult, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result := &SettleResult{}

	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO payment_events (gateway_payment_id, gateway_order_id, method)
			VALUES ($1, $2, $3)
			ON CONFLICT (gateway_payment_id) DO NOTHING
		`, params.GatewayPaymentID, params.GatewayOrderID, params.Method)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			result.AlreadyProcessed = true
			return nil
		}

		tag, err = tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, gateway_payment_id = $2, updated_at = now()
			WHERE gateway_order_id = $3 AND status = $4
		`, OrderSuccess, params.GatewayPaymentID, params.GatewayOrderID, OrderCreated)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		var m Membership
		err = tx.QueryRow(ctx, `
			INSERT INTO memberships (user_id, plan_id, start_date, end_date, active, last_payment_id)
			VALUES ($1, $2, $3, $4, true, $5)
			ON CONFLICT (user_id) DO UPDATE SET
				plan_id = EXCLUDED.plan_id,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				active = true,
				last_payment_id = EXCLUDED.last_payment_id,
				updated_at = now()
			RETURNING user_id, plan_id, start_date, end_date, active, last_payment_id, created_at, updated_at
		`, params.UserID, params.PlanID, params.StartDate, params.EndDate, params.GatewayPaymentID).
			Scan(&m.UserID, &m.PlanID, &m.StartDate, &m.EndDate, &m.Active, &m.LastPaymentID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return err
		}

		result.Membership = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
