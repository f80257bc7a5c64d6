package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

func TestMailEvent_ThroughProtoHandler(t *testing.T) {
	in := mail.Event{
		Key:       "k1",
		AccountID: "4b1c8a52-7d51-4f57-9a32-0c1c2a9e4f10",
		Email:     "alice@example.com",
		Username:  "alice",
		Token:     "header.payload.sig",
		Type:      mail.TypePasswordReset,
	}
	st, err := EncodeMailEvent(in)
	require.NoError(t, err)
	value, err := proto.Marshal(st)
	require.NoError(t, err)

	var got mail.Event
	h := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} },
		func(_ context.Context, key []byte, m *structpb.Struct) error {
			assert.Equal(t, in.AccountID, string(key))
			got, err = DecodeMailEvent(m)
			return err
		})

	require.NoError(t, h(context.Background(), []byte(in.AccountID), value))
	assert.Equal(t, in, got)
}

func TestDecodeMailEvent_Rejects(t *testing.T) {
	base := map[string]any{
		"key": "k1", "account_id": "a", "email": "a@x.io", "token": "t", "type": "verify",
	}
	for _, field := range []string{"key", "email", "token", "type"} {
		t.Run("missing "+field, func(t *testing.T) {
			fields := map[string]any{}
			for k, v := range base {
				if k != field {
					fields[k] = v
				}
			}
			st, err := structpb.NewStruct(fields)
			require.NoError(t, err)

			_, err = DecodeMailEvent(st)
			require.ErrorIs(t, err, ErrMalformedMailEvent)
		})
	}

	st, err := structpb.NewStruct(map[string]any{"key": "k1", "email": "a@x.io", "token": "t", "type": "welcome"})
	require.NoError(t, err)
	_, err = DecodeMailEvent(st)
	require.ErrorIs(t, err, ErrMalformedMailEvent)

	h := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} },
		func(context.Context, []byte, *structpb.Struct) error { return nil })
	require.ErrorIs(t, h(context.Background(), nil, []byte{0xff, 0xff}), ErrUndecodable)
}

func TestMailEventHandler(t *testing.T) {
	good := mail.Event{Key: "k1", AccountID: "a", Email: "a@x.io", Token: "t", Type: mail.TypeVerify}
	st, err := EncodeMailEvent(good)
	require.NoError(t, err)
	goodBytes, err := proto.Marshal(st)
	require.NoError(t, err)

	bad, err := structpb.NewStruct(map[string]any{"key": "k2"})
	require.NoError(t, err)
	badBytes, err := proto.Marshal(bad)
	require.NoError(t, err)

	var (
		handled []mail.Event
		dropped []error
	)
	boom := errors.New("smtp down")
	fail := false
	h := MailEventHandler(
		func(_ context.Context, ev mail.Event) error {
			if fail {
				return boom
			}
			handled = append(handled, ev)
			return nil
		},
		func(_ []byte, err error) { dropped = append(dropped, err) },
	)

	require.NoError(t, h(context.Background(), nil, goodBytes))
	require.NoError(t, h(context.Background(), nil, badBytes))
	require.NoError(t, h(context.Background(), nil, []byte("\xff\xff not proto")))

	fail = true
	require.ErrorIs(t, h(context.Background(), nil, goodBytes), boom)

	assert.Equal(t, []mail.Event{good}, handled)
	require.Len(t, dropped, 2)
	assert.ErrorIs(t, dropped[0], ErrMalformedMailEvent)
	assert.ErrorIs(t, dropped[1], ErrUndecodable)
}
