package apiv1

import (
	"time"

	"mockdata-subscription/internal/domain/model"
)

type userDTO struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Slug       string    `json:"slug"`
	IsPaidUser bool      `json:"is_paiduser"`
	DateJoined time.Time `json:"date_joined"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Slug:       u.Slug,
		IsPaidUser: u.IsPaidUser,
		DateJoined: u.DateJoined,
	}
}

type subscriptionDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func toSubscriptionDTO(s *model.Subscription) subscriptionDTO {
	return subscriptionDTO{ID: s.ID, Name: string(s.Name), Price: s.Price.StringFixed(2)}
}

type orderDTO struct {
	ID           string    `json:"id"`
	Reference    string    `json:"reference"`
	Subscription string    `json:"subscription"`
	TotalAmount  string    `json:"total_amount"`
	Paid         bool      `json:"paid"`
	Status       string    `json:"status"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	CreatedAt    time.Time `json:"created_at"`
}

func toOrderDTO(o *model.Order) orderDTO {
	return orderDTO{
		ID:           o.ID,
		Reference:    o.Reference,
		Subscription: string(o.SubscriptionName),
		TotalAmount:  o.TotalAmount.StringFixed(2),
		Paid:         o.Paid,
		Status:       string(o.Status),
		StartDate:    o.StartDate,
		EndDate:      o.EndDate,
		CreatedAt:    o.CreatedAt,
	}
}
