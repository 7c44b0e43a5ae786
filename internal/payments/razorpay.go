package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayAdapter talks to the Razorpay REST API with key id / key secret
// basic auth. BaseURL is overridable so tests can point it at a local server.
type RazorpayAdapter struct {
	KeyID     string
	KeySecret string
	BaseURL   string

	httpClient *http.Client
}

func NewRazorpayAdapter(keyID, keySecret string) *RazorpayAdapter {
	return &RazorpayAdapter{
		KeyID:     keyID,
		KeySecret: keySecret,
		BaseURL:   razorpayBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type razorpayOrder struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type razorpayPayment struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	CreatedAt int64  `json:"created_at"`
}

// CreateOrder reserves the amount gateway-side. Amount is already in minor
// units (paise) here; the ×100 conversion happens at the handler boundary.
func (r *RazorpayAdapter) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	payload := map[string]any{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	}

	var res razorpayOrder
	if err := r.do(ctx, http.MethodPost, "/orders", payload, &res); err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	return &GatewayOrder{
		ID:          res.ID,
		AmountMinor: res.Amount,
		Currency:    res.Currency,
		Status:      res.Status,
		CreatedAt:   res.CreatedAt,
	}, nil
}

func (r *RazorpayAdapter) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var res razorpayPayment
	if err := r.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &res); err != nil {
		return nil, fmt.Errorf("razorpay fetch payment: %w", err)
	}
	return paymentFromWire(res), nil
}

func (r *RazorpayAdapter) CapturePayment(ctx context.Context, paymentID string, amountMinor int64, currency string) (*Payment, error) {
	payload := map[string]any{
		"amount":   amountMinor,
		"currency": currency,
	}

	var res razorpayPayment
	if err := r.do(ctx, http.MethodPost, "/payments/"+paymentID+"/capture", payload, &res); err != nil {
		return nil, fmt.Errorf("razorpay capture payment: %w", err)
	}
	return paymentFromWire(res), nil
}

func paymentFromWire(res razorpayPayment) *Payment {
	return &Payment{
		ID:          res.ID,
		OrderID:     res.OrderID,
		Status:      res.Status,
		Method:      res.Method,
		AmountMinor: res.Amount,
		Currency:    res.Currency,
		Email:       res.Email,
		Contact:     res.Contact,
		CreatedAt:   res.CreatedAt,
	}
}

func (r *RazorpayAdapter) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, body)
	if err != nil {
		return err
	}
	httpReq.SetBasicAuth(r.KeyID, r.KeySecret)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		// keep the raw body for operator logs
		return fmt.Errorf("http=%d body=%s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode: %w body=%s", err, string(raw))
	}

	return nil
}
