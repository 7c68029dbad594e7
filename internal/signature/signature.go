// Package signature computes and checks the payment provider's checkout
// signature: hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrEmptySecret = errors.New("signature secret is empty")

// Sign returns the hex encoded signature for an order/payment pair.
func Sign(secret, orderID, paymentID string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	return hex.EncodeToString(digest(secret, orderID, paymentID)), nil
}

// Verify reports whether sig matches. Malformed hex is a mismatch, not an error.
func Verify(secret, orderID, paymentID, sig string) (bool, error) {
	if secret == "" {
		return false, ErrEmptySecret
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false, nil
	}
	return hmac.Equal(got, digest(secret, orderID, paymentID)), nil
}

func digest(secret, orderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return mac.Sum(nil)
}
