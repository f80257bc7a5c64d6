package kafka

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

var ErrUndecodable = errors.New("undecodable message")

func ProtoHandler[M proto.Message](ctor func() M, handle func(context.Context, []byte, M) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		msg := ctor()
		if err := proto.Unmarshal(value, msg); err != nil {
			return fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return handle(ctx, key, msg)
	}
}

// MailEventHandler decodes structpb mail events for handle. Messages that
// are not valid mail events go to drop and are acknowledged; only errors
// from handle cause a redelivery.
func MailEventHandler(handle func(context.Context, mail.Event) error, drop func(key []byte, err error)) Handler {
	decode := ProtoHandler(
		func() *structpb.Struct { return &structpb.Struct{} },
		func(ctx context.Context, _ []byte, st *structpb.Struct) error {
			ev, err := DecodeMailEvent(st)
			if err != nil {
				return err
			}
			return handle(ctx, ev)
		},
	)
	return func(ctx context.Context, key, value []byte) error {
		err := decode(ctx, key, value)
		if errors.Is(err, ErrUndecodable) || errors.Is(err, ErrMalformedMailEvent) {
			if drop != nil {
				drop(key, err)
			}
			return nil
		}
		return err
	}
}
