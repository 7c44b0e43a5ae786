package payments

import "context"

// Gateway is the payment provider surface the app depends on. The adapter is
// constructed once in main and passed in explicitly; nothing holds a global
// client.
type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	CapturePayment(ctx context.Context, paymentID string, amountMinor int64, currency string) (*Payment, error)
}
