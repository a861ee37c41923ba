package adapter

import (
	"context"
	"fmt"
	"time"
)

// InitSession is the provider's answer to a transaction initialization.
// It is handed back to clients unchanged.
type InitSession struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the provider's authoritative view of a charge.
type Transaction struct {
	ID        int64
	Reference string
	Status    string // "success", "failed", "abandoned", ...
	Amount    int64  // minor units
	Currency  string
	PaidAt    string // raw provider timestamp, parsed by the caller
}

// ProviderError carries a non-2xx provider response verbatim.
type ProviderError struct {
	Status int
	Body   []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider responded %d", e.Status)
}

// PaymentProvider is the hex port for the external payment provider.
// Transport failures are returned as domain Unavailable errors; non-2xx
// answers as *ProviderError.
type PaymentProvider interface {
	Name() string
	// Initialize opens a checkout session for amountMinor (kobo/cents) billed to email.
	Initialize(ctx context.Context, email string, amountMinor int64, currency string) (*InitSession, error)
	// Verify fetches the transaction state server-to-server.
	Verify(ctx context.Context, reference string) (*Transaction, error)
}

// WebhookVerifier authenticates a raw webhook body against its signature header.
type WebhookVerifier interface {
	Verify(body []byte, signature string) error
}

// Locker is a short-lived distributed mutex.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
