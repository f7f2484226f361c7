package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the hex HMAC-SHA256 of payload under secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a webhook's hex signature against the raw
// request body. An empty or malformed signature never verifies.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), given)
}

// VerifyPaymentSignature checks the tuple the hosted checkout hands back on
// success: HMAC-SHA256("<order_id>|<payment_id>", key secret).
func VerifyPaymentSignature(gatewayOrderID, paymentID, signature, keySecret string) bool {
	if gatewayOrderID == "" || paymentID == "" {
		return false
	}
	return VerifyWebhookSignature([]byte(gatewayOrderID+"|"+paymentID), signature, keySecret)
}
