package account

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Finder interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
}

type PasswordVerifier interface {
	Verify(password, hash string) bool
}

// Authenticate returns the account owning email when plaintext matches its
// stored hash. Unknown emails return before any hash work is done, so the
// response time differs from a wrong password.
func Authenticate(ctx context.Context, store Finder, hasher PasswordVerifier, email, plaintext string) (*Account, error) {
	a, err := store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !hasher.Verify(plaintext, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}
