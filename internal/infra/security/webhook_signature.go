// File: internal/infra/security/webhook_signature.go
package security

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/adapter"
)

// Header names carrying the webhook signature. The first is what Paystack sends.
const (
	SignatureHeader      = "X-Paystack-Signature"
	SignatureHeaderAlias = "X-Provider-Signature"
)

var _ adapter.WebhookVerifier = (*HMACVerifier)(nil)

// HMACVerifier checks hex(HMAC-SHA512(secret, body)) against the header value.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return domain.Forbidden("missing signature")
	}
	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return domain.Forbidden("invalid signature")
	}
	if !hmac.Equal(got, v.sign(body)) {
		return domain.Forbidden("invalid signature")
	}
	return nil
}

func (v *HMACVerifier) sign(body []byte) []byte {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	return mac.Sum(nil)
}

// Sign returns the hex signature for body. Used by tests and local tooling.
func (v *HMACVerifier) Sign(body []byte) string {
	return hex.EncodeToString(v.sign(body))
}
