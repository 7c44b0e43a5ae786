package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"triplea/internal/payments"
	"triplea/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

type mockGateway struct {
	orders       map[string]*payments.GatewayOrder
	payments     map[string]*payments.Payment
	createCalls  int
	captureCalls int
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		orders:   map[string]*payments.GatewayOrder{},
		payments: map[string]*payments.Payment{},
	}
}

func (g *mockGateway) CreateOrder(_ context.Context, req payments.CreateOrderRequest) (*payments.GatewayOrder, error) {
	g.createCalls++
	order := &payments.GatewayOrder{
		ID:          fmt.Sprintf("order_mock_%d", g.createCalls),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Status:      "created",
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *mockGateway) FetchPayment(_ context.Context, paymentID string) (*payments.Payment, error) {
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("http=404 body=payment not found")
	}
	copied := *payment
	return &copied, nil
}

func (g *mockGateway) CapturePayment(_ context.Context, paymentID string, _ int64, _ string) (*payments.Payment, error) {
	g.captureCalls++
	payment, ok := g.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("http=404 body=payment not found")
	}
	payment.Status = payments.PaymentStatusCaptured
	copied := *payment
	return &copied, nil
}

type mockMailer struct {
	sent int
}

func (m *mockMailer) Send(_, _, _ string, _ any) (int, error) {
	m.sent++
	return http.StatusOK, nil
}

func newTestApplication(t *testing.T) (*application, *mockGateway, *mockMailer) {
	t.Helper()

	receipts, err := payments.NewReceiptGenerator("test-salt")
	require.NoError(t, err)

	gateway := newMockGateway()
	mail := &mockMailer{}

	app := &application{
		config: config{
			razorpay: razorpayConfig{
				keyID:         "rzp_test_key",
				keySecret:     testKeySecret,
				webhookSecret: testWebhookSecret,
			},
		},
		store:      store.NewMockStore(),
		logger:     zap.NewNop().Sugar(),
		mailer:     mail,
		gateway:    gateway,
		signatures: payments.NewSignatureVerifier(testKeySecret, testWebhookSecret),
		receipts:   receipts,
	}

	return app, gateway, mail
}

func createTestUser(t *testing.T, app *application) *store.User {
	t.Helper()

	user := &store.User{
		FirstName: "Asha",
		LastName:  "Rai",
		Email:     "asha@example.com",
		Phone:     "9800000001",
		IsActive:  true,
	}
	require.NoError(t, app.store.Users.CreateAndInvite(context.Background(), user, "tok", time.Hour))
	return user
}

func asUser(req *http.Request, user *store.User) *http.Request {
	ctx := context.WithValue(req.Context(), userCtx, user)
	return req.WithContext(ctx)
}

func signHex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
}

// createOrder drives the order handler and returns the persisted order.
func createOrder(t *testing.T, app *application, user *store.User, amount int64, planID string) *store.Order {
	t.Helper()

	req := asUser(postJSON(t, "/v1/payments/orders", CreateOrderPayload{Amount: amount, PlanID: planID}), user)
	rr := httptest.NewRecorder()
	app.createPaymentOrderHandler(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Data CreateOrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	order, err := app.store.Orders.GetByGatewayOrderID(context.Background(), resp.Data.OrderID)
	require.NoError(t, err)
	return order
}

func TestCreatePaymentOrder(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)

	req := asUser(postJSON(t, "/v1/payments/orders", CreateOrderPayload{Amount: 699, PlanID: "monthly"}), user)
	rr := httptest.NewRecorder()
	app.createPaymentOrderHandler(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Data CreateOrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, int64(69900), resp.Data.Amount, "amount must be converted to paise")
	assert.Equal(t, "INR", resp.Data.Currency)
	assert.Equal(t, "rzp_test_key", resp.Data.KeyID)
	assert.Equal(t, 1, gateway.createCalls)

	order, err := app.store.Orders.GetByGatewayOrderID(context.Background(), resp.Data.OrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderCreated, order.Status)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, "monthly", order.PlanID)
	assert.Equal(t, int64(69900), order.AmountMinor)
}

func TestCreatePaymentOrderValidation(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)

	tests := []struct {
		name    string
		payload CreateOrderPayload
	}{
		{"zero amount", CreateOrderPayload{Amount: 0, PlanID: "monthly"}},
		{"negative amount", CreateOrderPayload{Amount: -699, PlanID: "monthly"}},
		{"unknown plan", CreateOrderPayload{Amount: 699, PlanID: "weekly"}},
		{"missing plan", CreateOrderPayload{Amount: 699}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := asUser(postJSON(t, "/v1/payments/orders", tc.payload), user)
			rr := httptest.NewRecorder()
			app.createPaymentOrderHandler(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	assert.Equal(t, 0, gateway.createCalls, "invalid payloads must never reach the gateway")
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: order.GatewayOrderID,
		Status:  payments.PaymentStatusCaptured,
	}

	req := asUser(postJSON(t, "/v1/payments/verify", VerifyPaymentPayload{
		OrderID:   order.GatewayOrderID,
		PaymentID: "pay_1",
		Signature: signHex("wrong_secret", order.GatewayOrderID+"|pay_1"),
	}), user)
	rr := httptest.NewRecorder()
	app.verifyPaymentHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// nothing settled
	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderCreated, stored.Status)

	_, err = app.store.Memberships.GetByUserID(context.Background(), user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerifyPaymentSettlesCapturedPayment(t *testing.T) {
	app, gateway, mail := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 2499, "quarterly")

	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: order.GatewayOrderID,
		Status:  payments.PaymentStatusCaptured,
		Method:  "upi",
	}

	req := asUser(postJSON(t, "/v1/payments/verify", VerifyPaymentPayload{
		OrderID:   order.GatewayOrderID,
		PaymentID: "pay_1",
		Signature: signHex(testKeySecret, order.GatewayOrderID+"|pay_1"),
	}), user)
	rr := httptest.NewRecorder()
	app.verifyPaymentHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Data VerifyPaymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Verified)
	require.NotNil(t, resp.Data.Membership)
	assert.Equal(t, "quarterly", resp.Data.Membership.PlanID)
	assert.True(t, resp.Data.Membership.Active)

	// a quarterly plan runs three calendar months
	wantEnd := resp.Data.Membership.StartDate.AddDate(0, 3, 0)
	assert.Equal(t, wantEnd, resp.Data.Membership.EndDate)

	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderSuccess, stored.Status)
	require.NotNil(t, stored.GatewayPaymentID)
	assert.Equal(t, "pay_1", *stored.GatewayPaymentID)

	assert.Equal(t, 0, gateway.captureCalls, "captured payments need no explicit capture")
	assert.Equal(t, 1, mail.sent)
}

func TestVerifyPaymentCapturesAuthorizedPayment(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: order.GatewayOrderID,
		Status:  payments.PaymentStatusAuthorized,
		Method:  "card",
	}

	req := asUser(postJSON(t, "/v1/payments/verify", VerifyPaymentPayload{
		OrderID:   order.GatewayOrderID,
		PaymentID: "pay_1",
		Signature: signHex(testKeySecret, order.GatewayOrderID+"|pay_1"),
	}), user)
	rr := httptest.NewRecorder()
	app.verifyPaymentHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, gateway.captureCalls)

	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderSuccess, stored.Status)
}

func TestVerifyPaymentRejectsMismatchedPayment(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	// valid signature, but the payment belongs to a different order
	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: "order_someone_else",
		Status:  payments.PaymentStatusCaptured,
	}

	req := asUser(postJSON(t, "/v1/payments/verify", VerifyPaymentPayload{
		OrderID:   order.GatewayOrderID,
		PaymentID: "pay_1",
		Signature: signHex(testKeySecret, order.GatewayOrderID+"|pay_1"),
	}), user)
	rr := httptest.NewRecorder()
	app.verifyPaymentHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderCreated, stored.Status)
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	app, gateway, mail := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: order.GatewayOrderID,
		Status:  payments.PaymentStatusCaptured,
	}

	verify := func() *httptest.ResponseRecorder {
		req := asUser(postJSON(t, "/v1/payments/verify", VerifyPaymentPayload{
			OrderID:   order.GatewayOrderID,
			PaymentID: "pay_1",
			Signature: signHex(testKeySecret, order.GatewayOrderID+"|pay_1"),
		}), user)
		rr := httptest.NewRecorder()
		app.verifyPaymentHandler(rr, req)
		return rr
	}

	first := verify()
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	before, err := app.store.Memberships.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	second := verify()
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	after, err := app.store.Memberships.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)

	// the duplicate confirmation must not extend or recreate the membership
	assert.Equal(t, before.EndDate, after.EndDate)
	assert.Equal(t, before.LastPaymentID, after.LastPaymentID)
	assert.Equal(t, 1, mail.sent, "only the first settlement sends a receipt")
}

func TestWebhookSettlesCapturedPayment(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: order.GatewayOrderID,
		Status:  payments.PaymentStatusCaptured,
		Method:  "upi",
	}

	body := fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_1",
					"order_id": %q,
					"status": "captured",
					"method": "upi",
					"amount": 69900,
					"currency": "INR"
				}
			}
		}
	}`, order.GatewayOrderID)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set(payments.WebhookSignatureHeader, signHex(testWebhookSecret, body))
	rr := httptest.NewRecorder()
	app.paymentWebhookHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderSuccess, stored.Status)

	membership, err := app.store.Memberships.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, membership.Active)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app, gateway, _ := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	gateway.payments["pay_1"] = &payments.Payment{
		ID:      "pay_1",
		OrderID: order.GatewayOrderID,
		Status:  payments.PaymentStatusCaptured,
	}

	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set(payments.WebhookSignatureHeader, signHex("wrong_secret", body))
	rr := httptest.NewRecorder()
	app.paymentWebhookHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderCreated, stored.Status)
}

func TestWebhookMarksFailedPayment(t *testing.T) {
	app, _, _ := newTestApplication(t)
	user := createTestUser(t, app)
	order := createOrder(t, app, user, 699, "monthly")

	body := fmt.Sprintf(`{
		"event": "payment.failed",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_1",
					"order_id": %q,
					"status": "failed"
				}
			}
		}
	}`, order.GatewayOrderID)

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set(payments.WebhookSignatureHeader, signHex(testWebhookSecret, body))
	rr := httptest.NewRecorder()
	app.paymentWebhookHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := app.store.Orders.GetByGatewayOrderID(context.Background(), order.GatewayOrderID)
	require.NoError(t, err)
	assert.Equal(t, store.OrderFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
}

func TestWebhookAcksUnknownOrder(t *testing.T) {
	app, _, _ := newTestApplication(t)

	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_x","order_id":"order_unknown"}}}}`

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set(payments.WebhookSignatureHeader, signHex(testWebhookSecret, body))
	rr := httptest.NewRecorder()
	app.paymentWebhookHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPaymentHistory(t *testing.T) {
	app, _, _ := newTestApplication(t)
	user := createTestUser(t, app)
	createOrder(t, app, user, 699, "monthly")
	createOrder(t, app, user, 7999, "yearly")

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/payments/history", nil), user)
	rr := httptest.NewRecorder()
	app.paymentHistoryHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data []store.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}
