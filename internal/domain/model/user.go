package model

import (
	"strings"
	"time"

	"mockdata-subscription/internal/domain"

	"github.com/google/uuid"
)

// User is an account holder. IsPaidUser only ever flips false -> true.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Slug         string
	PasswordHash string
	IsPaidUser   bool
	IsActive     bool
	DateJoined   time.Time
}

func NewUser(id, username, email, firstName, lastName, slug string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || slug == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:         id,
		Username:   username,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Slug:       slug,
		IsActive:   true,
		DateJoined: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
