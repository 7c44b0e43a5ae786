package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *RazorpayAdapter {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adapter := NewRazorpayAdapter("rzp_test_key", "rzp_test_secret")
	adapter.BaseURL = srv.URL
	return adapter
}

func TestRazorpayCreateOrder(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "rzp_test_secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(69900), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "rcpt_abc123", body["receipt"])

		notes, ok := body["notes"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "monthly", notes["plan_id"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_test_1",
			"amount":   69900,
			"currency": "INR",
			"receipt":  "rcpt_abc123",
			"status":   "created",
		})
	})

	order, err := adapter.CreateOrder(context.Background(), CreateOrderRequest{
		AmountMinor: 69900,
		Currency:    "INR",
		Receipt:     "rcpt_abc123",
		Notes:       map[string]string{"plan_id": "monthly", "user_id": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_test_1", order.ID)
	assert.Equal(t, int64(69900), order.AmountMinor)
	assert.Equal(t, "created", order.Status)
}

func TestRazorpayFetchPayment(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payments/pay_test_1", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "pay_test_1",
			"order_id": "order_test_1",
			"status":   "authorized",
			"method":   "card",
			"amount":   69900,
			"currency": "INR",
		})
	})

	payment, err := adapter.FetchPayment(context.Background(), "pay_test_1")
	require.NoError(t, err)
	assert.Equal(t, "order_test_1", payment.OrderID)
	assert.Equal(t, PaymentStatusAuthorized, payment.Status)
	assert.Equal(t, "card", payment.Method)
}

func TestRazorpayCapturePayment(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/pay_test_1/capture", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(69900), body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(map[string]any{
			"id":       "pay_test_1",
			"order_id": "order_test_1",
			"status":   "captured",
			"amount":   69900,
			"currency": "INR",
		})
	})

	payment, err := adapter.CapturePayment(context.Background(), "pay_test_1", 69900, "INR")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusCaptured, payment.Status)
}

func TestRazorpayErrorResponse(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"amount exceeds maximum"}}`))
	})

	_, err := adapter.CreateOrder(context.Background(), CreateOrderRequest{
		AmountMinor: 1,
		Currency:    "INR",
		Receipt:     "rcpt_x",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http=400")
}
