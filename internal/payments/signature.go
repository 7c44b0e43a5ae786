package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureVerifier checks gateway signatures. The key secret signs the
// client-reported confirmation, the webhook secret signs webhook bodies; both
// are server-held and never leave the process.
type SignatureVerifier struct {
	keySecret     string
	webhookSecret string
}

func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// VerifyPayment checks the signature a client reports after completing the
// gateway checkout: hex HMAC-SHA256 over "orderID|paymentID".
func (v *SignatureVerifier) VerifyPayment(orderID, paymentID, signature string) bool {
	expected := signHex([]byte(orderID+"|"+paymentID), v.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhook checks the vendor signature header against the raw request
// body before any event is trusted.
func (v *SignatureVerifier) VerifyWebhook(body []byte, signature string) bool {
	expected := signHex(body, v.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func signHex(msg []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}
