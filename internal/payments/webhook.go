package payments

import (
	"encoding/json"
	"fmt"
)

// Webhook event names the verifier acts on.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// WebhookSignatureHeader carries the gateway's hex HMAC over the raw body.
const WebhookSignatureHeader = "X-Razorpay-Signature"

// WebhookEvent is the decoded gateway event envelope. Only the payment entity
// is pulled out; the rest of the envelope is consumed and dropped.
type WebhookEvent struct {
	Event   string
	Payment *Payment
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity razorpayPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode webhook envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("webhook envelope missing event")
	}

	return &WebhookEvent{
		Event:   env.Event,
		Payment: paymentFromWire(env.Payload.Payment.Entity),
	}, nil
}
