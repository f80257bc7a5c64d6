package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

var _ mail.DeliveryLog = (*MailDeliveryRepo)(nil)

type MailDeliveryRepo struct{ db *DB }

func NewMailDeliveryRepo(db *DB) *MailDeliveryRepo { return &MailDeliveryRepo{db: db} }

const (
	qDeliveryExists = `
SELECT EXISTS (SELECT 1 FROM mail_deliveries WHERE key = $1);
`
	qDeliveryInsert = `
INSERT INTO mail_deliveries (key, account_id, recipient, type, sent_at)
VALUES ($1, $2, $3, $4, COALESCE($5, now()))
ON CONFLICT (key) DO NOTHING;
`
)

func (r *MailDeliveryRepo) Delivered(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var ok bool
	if err := r.db.Pool.QueryRow(ctx, qDeliveryExists, key).Scan(&ok); err != nil {
		return false, fmt.Errorf("query mail delivery: %w", err)
	}
	return ok, nil
}

func (r *MailDeliveryRepo) Record(ctx context.Context, d mail.Delivery) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qDeliveryInsert,
		d.Key,
		d.AccountID,
		d.Recipient,
		string(d.Type),
		nullTime(d.SentAt),
	); err != nil {
		return fmt.Errorf("insert mail delivery: %w", err)
	}
	return nil
}
