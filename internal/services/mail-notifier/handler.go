package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
	"github.com/NordCoder/Gatekeeper/internal/obs"
)

var (
	mSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_notifier_emails_sent_total",
		Help: "Emails sent",
	}, []string{"type"})
	mDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mail_notifier_duplicates_total",
		Help: "Events skipped because their mail was already sent",
	})
)

type Handler struct {
	Deliveries mail.DeliveryLog
	Out        mail.Sender
	Links      Links
	Clock      func() time.Time
	Log        *zap.Logger
}

// HandleMailEvent sends the mail for ev unless its key was already delivered.
func (h *Handler) HandleMailEvent(ctx context.Context, ev mail.Event) error {
	log := obs.WithTrace(ctx, h.logger()).With(
		zap.String("key", ev.Key),
		zap.String("type", string(ev.Type)),
	)

	done, err := h.Deliveries.Delivered(ctx, ev.Key)
	if err != nil {
		return fmt.Errorf("check delivery: %w", err)
	}
	if done {
		mDuplicates.Inc()
		log.Debug("mail already delivered")
		return nil
	}

	subject, body, err := Render(ev, h.Links)
	if err != nil {
		return err
	}
	if err := h.Out.Send(ctx, ev.Email, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	mSent.WithLabelValues(string(ev.Type)).Inc()

	err = h.Deliveries.Record(ctx, mail.Delivery{
		Key:       ev.Key,
		AccountID: ev.AccountID,
		Recipient: ev.Email,
		Type:      ev.Type,
		SentAt:    h.now(),
	})
	if err != nil {
		// the mail is out; a redelivery may send it twice
		log.Warn("record delivery", zap.Error(err))
	}
	return nil
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

func (h *Handler) logger() *zap.Logger {
	if h.Log != nil {
		return h.Log
	}
	return zap.NewNop()
}
