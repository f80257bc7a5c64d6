package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Gatekeeper/internal/domain/token"
)

var _ token.RevocationStore = (*RevocationRepo)(nil)

type RevocationRepo struct {
	db  *DB
	now func() time.Time
}

func NewRevocationRepo(db *DB) *RevocationRepo {
	return &RevocationRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const (
	qRevokedExists = `
SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1);`

	qRevokeInsert = `
INSERT INTO revoked_tokens (jti, expires_at)
VALUES ($1, $2)
ON CONFLICT (jti) DO UPDATE
SET expires_at = GREATEST(revoked_tokens.expires_at, EXCLUDED.expires_at);`

	qRevokedDeleteExpired = `
DELETE FROM revoked_tokens
WHERE expires_at <= $1;`
)

func (r *RevocationRepo) IsBlacklisted(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.execQueryer(ctx).QueryRow(ctx, qRevokedExists, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return exists, nil
}

func (r *RevocationRepo) Blacklist(ctx context.Context, id string, expireAt time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.execQueryer(ctx).Exec(ctx, qRevokeInsert, id, expireAt.UTC()); err != nil {
		return fmt.Errorf("revocation insert: %w", err)
	}
	return nil
}

func (r *RevocationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRevokedDeleteExpired, r.now())
	if err != nil {
		return 0, fmt.Errorf("revocation sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
