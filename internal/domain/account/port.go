package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
)

// Store persists accounts. Lookups return ErrNotFound when nothing matches.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	// Create inserts a new account; it fails with ErrEmailTaken or
	// ErrUsernameTaken when a unique field collides.
	Create(ctx context.Context, a *Account) error
	// Save updates an existing account. IsVerified never goes back to false.
	Save(ctx context.Context, a *Account) error
}
