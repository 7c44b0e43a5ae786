package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"triplea/internal/mailer"
	"triplea/internal/notifications"
	"triplea/internal/payments"
	"triplea/internal/store"
)

var (
	errPaymentOrderMismatch = errors.New("payment does not belong to the given order")
	errPaymentNotCaptured   = errors.New("payment is not captured")
)

type CreateOrderPayload struct {
	// Amount in rupees (major units); converted to paise for the gateway
	Amount int64  `json:"amount" validate:"required,gt=0"`
	PlanID string `json:"plan_id" validate:"required,planid"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

// createPaymentOrderHandler godoc
//
//	@Summary		Creates a payment order for a membership plan
//	@Description	Reserves the amount with the payment gateway and records a pending order
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateOrderPayload	true	"Amount (rupees) and plan id"
//	@Success		201		{object}	CreateOrderResponse
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/orders [post]
func (app *application) createPaymentOrderHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateOrderPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	plan, err := app.store.Plans.GetByID(r.Context(), payload.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.badRequestResponse(w, r, fmt.Errorf("unknown plan: %s", payload.PlanID))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	receipt, err := app.receipts.Generate(user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	gwOrder, err := app.gateway.CreateOrder(r.Context(), payments.CreateOrderRequest{
		AmountMinor: payload.Amount * 100, // rupees -> paise
		Currency:    "INR",
		Receipt:     receipt,
		Notes: map[string]string{
			"plan_id": plan.ID,
			"user_id": strconv.FormatInt(user.ID, 10),
		},
	})
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("failed to create payment order: %w", err))
		return
	}

	order := &store.Order{
		GatewayOrderID: gwOrder.ID,
		UserID:         user.ID,
		PlanID:         plan.ID,
		AmountMinor:    gwOrder.AmountMinor,
		Currency:       gwOrder.Currency,
		Receipt:        receipt,
		Status:         store.OrderCreated,
	}
	if err := app.store.Orders.Create(r.Context(), order); err != nil {
		// the gateway order is now orphaned; it simply expires unpaid
		app.internalServerError(w, r, fmt.Errorf("failed to persist order %s: %w", gwOrder.ID, err))
		return
	}

	resp := CreateOrderResponse{
		OrderID:  gwOrder.ID,
		Amount:   gwOrder.AmountMinor,
		Currency: gwOrder.Currency,
		KeyID:    app.config.razorpay.keyID,
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type VerifyPaymentPayload struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type VerifyPaymentResponse struct {
	Verified   bool              `json:"verified"`
	Membership *store.Membership `json:"membership,omitempty"`
}

// verifyPaymentHandler godoc
//
//	@Summary		Verifies a client-reported payment confirmation
//	@Description	Checks the gateway signature over "orderId|paymentId", confirms capture with the gateway and activates the membership
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		VerifyPaymentPayload	true	"Confirmation reported by the checkout client"
//	@Success		200		{object}	VerifyPaymentResponse
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/verify [post]
func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload VerifyPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.signatures.VerifyPayment(payload.OrderID, payload.PaymentID, payload.Signature) {
		app.invalidSignatureResponse(w, r)
		return
	}

	order, err := app.store.Orders.GetByGatewayOrderID(r.Context(), payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if order.UserID != user.ID {
		app.notFoundResponse(w, r, fmt.Errorf("order %s does not belong to user %d", payload.OrderID, user.ID))
		return
	}

	membership, err := app.settleCapturedPayment(r.Context(), order, payload.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, errPaymentOrderMismatch), errors.Is(err, errPaymentNotCaptured):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	resp := VerifyPaymentResponse{
		Verified:   true,
		Membership: membership,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// paymentWebhookHandler godoc
//
//	@Summary		Receives asynchronous gateway events
//	@Description	Trusts events only after the signature header matches an HMAC over the raw body
//	@Tags			payments
//	@Accept			json
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Failure		400	{object}	error
//	@Router			/payments/webhook [post]
func (app *application) paymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1_048_578))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("read webhook body: %w", err))
		return
	}

	signature := r.Header.Get(payments.WebhookSignatureHeader)
	if signature == "" || !app.signatures.VerifyWebhook(body, signature) {
		app.invalidSignatureResponse(w, r)
		return
	}

	event, err := payments.ParseWebhookEvent(body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	switch event.Event {
	case payments.EventPaymentCaptured:
		order, err := app.store.Orders.GetByGatewayOrderID(ctx, event.Payment.OrderID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// unknown order is permanent; ack so the gateway stops retrying
				app.logger.Warnw("webhook for unknown order", "order_id", event.Payment.OrderID)
				break
			}
			app.internalServerError(w, r, err)
			return
		}

		if _, err := app.settleCapturedPayment(ctx, order, event.Payment.ID); err != nil {
			if errors.Is(err, errPaymentOrderMismatch) || errors.Is(err, errPaymentNotCaptured) {
				app.badRequestResponse(w, r, err)
				return
			}
			// 5xx so the provider retries on transient failures
			app.internalServerError(w, r, err)
			return
		}

	case payments.EventPaymentFailed:
		err := app.store.Orders.MarkFailed(ctx, event.Payment.OrderID, "payment.failed")
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			app.internalServerError(w, r, err)
			return
		}

	default:
		app.logger.Infow("ignoring webhook event", "event", event.Event)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// settleCapturedPayment is the shared back half of both confirmation paths.
// The caller has already established trust (client signature or webhook
// signature); this re-checks reality with the gateway, captures authorized
// payments, and applies the settlement exactly once.
func (app *application) settleCapturedPayment(ctx context.Context, order *store.Order, paymentID string) (*store.Membership, error) {
	payment, err := app.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	// a forged but structurally valid signature could reference someone
	// else's payment; the gateway record is the source of truth
	if payment.OrderID != order.GatewayOrderID {
		return nil, errPaymentOrderMismatch
	}

	if payment.Status == payments.PaymentStatusAuthorized {
		payment, err = app.gateway.CapturePayment(ctx, paymentID, order.AmountMinor, order.Currency)
		if err != nil {
			return nil, fmt.Errorf("capture payment %s: %w", paymentID, err)
		}
	}

	if payment.Status != payments.PaymentStatusCaptured {
		if payment.Status == payments.PaymentStatusFailed {
			if err := app.store.Orders.MarkFailed(ctx, order.GatewayOrderID, "gateway reported failure"); err != nil && !errors.Is(err, store.ErrNotFound) {
				app.logger.Errorw("mark order failed", "order_id", order.GatewayOrderID, "error", err)
			}
		}
		return nil, errPaymentNotCaptured
	}

	plan, err := app.store.Plans.GetByID(ctx, order.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", order.PlanID, err)
	}

	start, end := plan.WindowFrom(time.Now())

	result, err := app.store.Settlements.Settle(ctx, store.SettleParams{
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: payment.ID,
		Method:           payment.Method,
		UserID:           order.UserID,
		PlanID:           plan.ID,
		StartDate:        start,
		EndDate:          end,
	})
	if err != nil {
		return nil, fmt.Errorf("settle payment %s: %w", payment.ID, err)
	}

	if result.AlreadyProcessed {
		// the competing confirmation already did the work
		return app.store.Memberships.GetByUserID(ctx, order.UserID)
	}

	app.notifySettlement(ctx, order.UserID, plan, payment.ID, result.Membership)

	return result.Membership, nil
}

// notifySettlement sends the receipt email and the activation push. Both are
// best effort: a failure here must never unwind a settled payment.
func (app *application) notifySettlement(ctx context.Context, userID int64, plan *store.Plan, paymentID string, membership *store.Membership) {
	user, err := app.store.Users.GetByID(ctx, userID)
	if err != nil {
		app.logger.Errorw("load user for receipt", "user_id", userID, "error", err)
		return
	}

	vars := struct {
		Username  string
		PlanName  string
		PaymentID string
		StartDate string
		EndDate   string
	}{
		Username:  user.FirstName,
		PlanName:  plan.Name,
		PaymentID: paymentID,
		StartDate: membership.StartDate.Format("2 Jan 2006"),
		EndDate:   membership.EndDate.Format("2 Jan 2006"),
	}

	if _, err := app.mailer.Send(mailer.PaymentReceiptTemplate, user.FirstName, user.Email, vars); err != nil {
		app.logger.Errorw("send receipt email", "user_id", userID, "error", err)
	}

	if app.push == nil {
		return
	}

	tokens, err := app.store.PushTokens.GetByUserID(ctx, userID)
	if err != nil {
		app.logger.Errorw("load push tokens", "user_id", userID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if err := notifications.SendMembershipActivated(ctx, app.push, tokens, plan.Name, membership.EndDate); err != nil {
		app.logger.Errorw("send membership push", "user_id", userID, "error", err)
	}
}

// paymentHistoryHandler godoc
//
//	@Summary		Lists the authenticated user's payment orders
//	@Tags			payments
//	@Produce		json
//	@Param			limit	query	int	false	"Page size (default 20)"
//	@Param			offset	query	int	false	"Offset (default 0)"
//	@Success		200		{array}	store.Order
//	@Security		ApiKeyAuth
//	@Router			/payments/history [get]
func (app *application) paymentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	orders, err := app.store.Orders.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, orders); err != nil {
		app.internalServerError(w, r, err)
	}
}
