package notifier

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
	kafkax "github.com/NordCoder/Gatekeeper/internal/repository/kafka"
)

var (
	mConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mail_notifier_messages_consumed_total",
		Help: "Mail events consumed",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mail_notifier_errors_total",
		Help: "Errors",
	})
	mDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mail_notifier_dropped_total",
		Help: "Messages dropped as malformed",
	})
)

type Subscriber interface {
	Consume(ctx context.Context, h kafkax.Handler) error
}

var _ Subscriber = (*kafkax.Consumer)(nil)

type Controller struct {
	Log *zap.Logger
	Sub Subscriber
	UC  *Handler
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.MailEventHandler(
		func(ctx context.Context, ev mail.Event) error {
			mConsumed.Inc()
			if err := c.UC.HandleMailEvent(ctx, ev); err != nil {
				mErrors.Inc()
				return err
			}
			return nil
		},
		func(key []byte, err error) {
			mDropped.Inc()
			c.Log.Warn("mail event dropped", zap.ByteString("kafka_key", key), zap.Error(err))
		},
	)

	if err := c.Sub.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		mErrors.Inc()
		c.Log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}
