package usecase

import (
	"context"

	"github.com/google/uuid"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/repository"
)

const defaultTokenAttempts = 8

// TokenAllocator hands out opaque tokens that no order reference or user slug uses yet.
type TokenAllocator struct {
	registry repository.TokenRegistry
	attempts int
	newToken func() string
}

func NewTokenAllocator(registry repository.TokenRegistry) *TokenAllocator {
	return &TokenAllocator{
		registry: registry,
		attempts: defaultTokenAttempts,
		newToken: uuid.NewString,
	}
}

// Generate draws candidates until one is unused. The database unique
// constraints still guard the final insert.
func (a *TokenAllocator) Generate(ctx context.Context, tx repository.Tx) (string, error) {
	for i := 0; i < a.attempts; i++ {
		candidate := a.newToken()
		taken, err := a.registry.TokenExists(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.Internal("could not allocate a unique token", domain.ErrTokenExhausted)
}
