package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

type MailEvents struct {
	p *Producer
}

func NewMailEvents(p *Producer) *MailEvents { return &MailEvents{p: p} }

var _ mail.Publisher = (*MailEvents)(nil)

// PublishMailEvent keys messages by account so one account's mails stay ordered.
func (e *MailEvents) PublishMailEvent(ctx context.Context, ev mail.Event) error {
	st, err := EncodeMailEvent(ev)
	if err != nil {
		return err
	}
	return e.p.PublishProto(ctx, []byte(ev.AccountID), st, kafka.Header{Key: HeaderMailType, Value: []byte(ev.Type)})
}

func EncodeMailEvent(ev mail.Event) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(map[string]any{
		"key":        ev.Key,
		"account_id": ev.AccountID,
		"email":      ev.Email,
		"username":   ev.Username,
		"token":      ev.Token,
		"type":       string(ev.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("encode mail event: %w", err)
	}
	return st, nil
}

var ErrMalformedMailEvent = errors.New("malformed mail event")

func DecodeMailEvent(st *structpb.Struct) (mail.Event, error) {
	f := st.GetFields()
	ev := mail.Event{
		Key:       f["key"].GetStringValue(),
		AccountID: f["account_id"].GetStringValue(),
		Email:     f["email"].GetStringValue(),
		Username:  f["username"].GetStringValue(),
		Token:     f["token"].GetStringValue(),
		Type:      mail.TokenType(f["type"].GetStringValue()),
	}
	switch {
	case ev.Key == "":
		return mail.Event{}, fmt.Errorf("%w: missing key", ErrMalformedMailEvent)
	case ev.Email == "":
		return mail.Event{}, fmt.Errorf("%w: missing email", ErrMalformedMailEvent)
	case ev.Token == "":
		return mail.Event{}, fmt.Errorf("%w: missing token", ErrMalformedMailEvent)
	case !ev.Type.Valid():
		return mail.Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedMailEvent, ev.Type)
	}
	return ev, nil
}
