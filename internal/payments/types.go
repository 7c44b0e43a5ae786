package payments

// Gateway payment states. Only "captured" settles an order; "authorized" needs
// an explicit capture call first.
const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusFailed     = "failed"
)

type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
	CreatedAt   int64
}

type Payment struct {
	ID          string
	OrderID     string
	Status      string
	Method      string
	AmountMinor int64
	Currency    string
	Email       string
	Contact     string
	CreatedAt   int64
}
