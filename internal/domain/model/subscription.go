package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain"
)

type SubscriptionType string

const (
	SubscriptionMonthly SubscriptionType = "Monthly"
	SubscriptionAnnual  SubscriptionType = "Annual"
)

// ParseSubscriptionType matches a plan name case-insensitively.
func ParseSubscriptionType(s string) (SubscriptionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return SubscriptionMonthly, true
	case "annual":
		return SubscriptionAnnual, true
	}
	return "", false
}

// Period is the billing window an order for this plan covers at creation.
// Fixed per type, not stored on the catalog row.
func (t SubscriptionType) Period() time.Duration {
	if t == SubscriptionAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// Expiration returns when a payment made at paidAt stops covering the user.
func (t SubscriptionType) Expiration(paidAt time.Time) time.Time {
	if t == SubscriptionAnnual {
		return paidAt.AddDate(1, 0, 0)
	}
	return paidAt.AddDate(0, 1, 0)
}

// Subscription is an immutable catalog row.
type Subscription struct {
	ID        string
	Name      SubscriptionType
	Price     decimal.Decimal
	CreatedAt time.Time
}

func (s *Subscription) IsZero() bool { return s == nil || s.ID == "" }

// NewSubscription validates and constructs a catalog entry.
func NewSubscription(id string, name SubscriptionType, price decimal.Decimal) (*Subscription, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, ok := ParseSubscriptionType(string(name)); !ok {
		return nil, domain.ErrInvalidArgument
	}
	if !price.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:        id,
		Name:      name,
		Price:     price.Round(2),
		CreatedAt: time.Now(),
	}, nil
}
