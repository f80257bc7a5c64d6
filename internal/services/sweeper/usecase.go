package sweeper

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NordCoder/Gatekeeper/internal/domain/token"
)

type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

var _ Expirer = (token.RevocationStore)(nil)

type Usecase struct {
	Store Expirer
}

func NewUC(store Expirer) *Usecase {
	return &Usecase{Store: store}
}

// Tick drops revocation entries whose tokens can no longer verify.
func (u *Usecase) Tick(ctx context.Context) (int64, error) {
	ctx, span := otel.Tracer("sweeper.uc").Start(ctx, "sweeper.tick")
	defer span.End()

	n, err := u.Store.DeleteExpired(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	span.SetAttributes(attribute.Int64("revocations.deleted", n))
	return n, nil
}
