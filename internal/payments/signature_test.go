package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func hmacHex(t *testing.T, secret, msg string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPayment(t *testing.T) {
	v := NewSignatureVerifier("key_secret", "webhook_secret")

	orderID := "order_Nxs9qGyS1HQ0aB"
	paymentID := "pay_Nxsa7Fj2kZcLqV"
	good := hmacHex(t, "key_secret", orderID+"|"+paymentID)

	assert.True(t, v.VerifyPayment(orderID, paymentID, good))

	// signed with the wrong secret
	assert.False(t, v.VerifyPayment(orderID, paymentID, hmacHex(t, "other_secret", orderID+"|"+paymentID)))

	// signature for a different payment
	assert.False(t, v.VerifyPayment(orderID, "pay_other", good))

	// garbage and empty signatures
	assert.False(t, v.VerifyPayment(orderID, paymentID, "deadbeef"))
	assert.False(t, v.VerifyPayment(orderID, paymentID, ""))
}

func TestVerifyWebhook(t *testing.T) {
	v := NewSignatureVerifier("key_secret", "webhook_secret")

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	good := hmacHex(t, "webhook_secret", string(body))

	assert.True(t, v.VerifyWebhook(body, good))

	// the key secret must not validate webhook bodies
	assert.False(t, v.VerifyWebhook(body, hmacHex(t, "key_secret", string(body))))

	// any body mutation invalidates the signature
	tampered := append([]byte(nil), body...)
	tampered[0] = ' '
	assert.False(t, v.VerifyWebhook(tampered, good))
}

func TestParseWebhookEvent(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_123",
					"order_id": "order_456",
					"status": "captured",
					"method": "upi",
					"amount": 99900,
					"currency": "INR"
				}
			}
		}
	}`)

	event, err := ParseWebhookEvent(body)
	assert.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, event.Event)
	assert.Equal(t, "pay_123", event.Payment.ID)
	assert.Equal(t, "order_456", event.Payment.OrderID)
	assert.Equal(t, PaymentStatusCaptured, event.Payment.Status)
	assert.Equal(t, int64(99900), event.Payment.AmountMinor)

	_, err = ParseWebhookEvent([]byte(`{"payload":{}}`))
	assert.Error(t, err)

	_, err = ParseWebhookEvent([]byte(`not json`))
	assert.Error(t, err)
}
