package model

import (
	"time"

	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Order is a user's request to buy one subscription period.
// TotalAmount is a snapshot of the catalog price at creation time.
type Order struct {
	ID               string
	UserID           string
	Reference        string
	SubscriptionID   string
	SubscriptionName SubscriptionType
	TotalAmount      decimal.Decimal
	Paid             bool
	Status           OrderStatus
	StartDate        time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOrder builds an unpaid, pending order for sub covering now..now+period.
func NewOrder(id, userID, reference string, sub *Subscription, now time.Time) (*Order, error) {
	if id == "" || userID == "" || reference == "" || sub.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &Order{
		ID:               id,
		UserID:           userID,
		Reference:        reference,
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
		TotalAmount:      sub.Price,
		Paid:             false,
		Status:           OrderStatusPending,
		StartDate:        now,
		EndDate:          now.Add(sub.Name.Period()),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsActive reports whether the order is paid and still running at now.
func (o *Order) IsActive(now time.Time) bool {
	return o != nil && o.Paid && o.EndDate.After(now)
}

// MarkPaid applies a provider confirmation.
func (o *Order) MarkPaid(endDate time.Time) {
	o.Paid = true
	o.EndDate = endDate
	o.Status = OrderStatusCompleted
	o.UpdatedAt = time.Now()
}
