package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated" // provider session created, awaiting webhook
	PaymentStatusVerified  PaymentStatus = "verified"  // confirmed by provider verify call
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported charge.failed
)

type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
)

// Payment is one attempt to pay for an Order through the provider.
type Payment struct {
	ID             string // ULID
	OrderID        string
	Amount         decimal.Decimal
	Currency       Currency
	TransactionID  string // provider reference, unique
	Verified       bool
	Status         PaymentStatus
	Timestamp      time.Time // provider paid_at once verified, creation time before
	ExpirationDate time.Time
	CreatedAt      time.Time
}

// Settled reports whether no further transitions apply.
func (p *Payment) Settled() bool {
	return p.Verified || p.Status == PaymentStatusFailed
}

// ProviderStatusClosed reports whether a provider transaction status is final
// without the charge having succeeded.
func ProviderStatusClosed(status string) bool {
	switch strings.ToLower(status) {
	case "failed", "abandoned", "reversed":
		return true
	}
	return false
}

// MinorUnits converts an amount into the provider's smallest currency unit (kobo, cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
