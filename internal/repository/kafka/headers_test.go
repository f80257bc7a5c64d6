package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier_SetReplaces(t *testing.T) {
	hs := []kafka.Header{{Key: HeaderMailType, Value: []byte("verify")}}
	c := headerCarrier{hs: &hs}

	c.Set("traceparent", "a")
	c.Set("traceparent", "b")

	require.Len(t, hs, 2)
	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, "verify", headerValue(hs, HeaderMailType))
	assert.ElementsMatch(t, []string{HeaderMailType, "traceparent"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}

func TestHeaderCarrier_TraceContextRoundTrip(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	prop := propagation.TraceContext{}

	var hs []kafka.Header
	prop.Inject(ctx, headerCarrier{hs: &hs})
	require.NotEmpty(t, headerValue(hs, "traceparent"))

	got := trace.SpanContextFromContext(prop.Extract(context.Background(), headerCarrier{hs: &hs}))
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, sc.SpanID(), got.SpanID())
}
