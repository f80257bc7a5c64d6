package token

import (
	"context"
	"time"
)

type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, id string) (bool, error)
}

// RevocationStore records revoked token ids until their natural expiry.
type RevocationStore interface {
	RevocationChecker
	// Blacklist is idempotent; a second call for the same id succeeds.
	Blacklist(ctx context.Context, id string, expireAt time.Time) error
	// DeleteExpired drops entries whose expiry has passed and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
