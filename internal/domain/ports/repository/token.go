package repository

import "context"

// TokenRegistry answers whether an opaque token is already used anywhere in
// the system (order references, user slugs).
type TokenRegistry interface {
	TokenExists(ctx context.Context, tx Tx, token string) (bool, error)
}
