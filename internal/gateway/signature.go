package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature returns the hex encoded HMAC-SHA256 of
// "orderID|paymentID" under the given secret.  This is the value
// the gateway sends back after a successful checkout.
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature and compares
// it against the supplied one in constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	expected := Signature(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
