package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finderStub map[string]*Account

func (f finderStub) FindByEmail(_ context.Context, email string) (*Account, error) {
	if a, ok := f[email]; ok {
		return a, nil
	}
	return nil, ErrNotFound
}

type plainVerifier struct{ calls int }

func (v *plainVerifier) Verify(password, hash string) bool {
	v.calls++
	return "hashed:"+password == hash
}

type brokenFinder struct{}

func (brokenFinder) FindByEmail(context.Context, string) (*Account, error) {
	return nil, errors.New("connection reset")
}

func TestAuthenticate(t *testing.T) {
	alice := &Account{Email: "alice@example.com", PasswordHash: "hashed:s3cret"}
	store := finderStub{alice.Email: alice}

	t.Run("matching password", func(t *testing.T) {
		v := &plainVerifier{}
		got, err := Authenticate(context.Background(), store, v, "  Alice@Example.com ", "s3cret")
		require.NoError(t, err)
		assert.Same(t, alice, got)
	})

	t.Run("wrong password", func(t *testing.T) {
		v := &plainVerifier{}
		got, err := Authenticate(context.Background(), store, v, alice.Email, "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, got)
		assert.Equal(t, 1, v.calls)
	})

	t.Run("unknown email skips hashing", func(t *testing.T) {
		v := &plainVerifier{}
		_, err := Authenticate(context.Background(), store, v, "bob@example.com", "s3cret")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Zero(t, v.calls)
	})

	t.Run("store failure is not a credential error", func(t *testing.T) {
		_, err := Authenticate(context.Background(), brokenFinder{}, &plainVerifier{}, alice.Email, "s3cret")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}
