package kafka

import "github.com/segmentio/kafka-go"

// HeaderMailType carries the mail.TokenType of a mail event so consumers
// can label spans without decoding the payload.
const HeaderMailType = "mail-type"

// headerCarrier adapts a message's headers to the otel propagator. Set
// replaces an existing key rather than appending a duplicate.
type headerCarrier struct {
	hs *[]kafka.Header
}

func (c headerCarrier) Get(k string) string { return headerValue(*c.hs, k) }

func (c headerCarrier) Set(k, v string) {
	for i := range *c.hs {
		if (*c.hs)[i].Key == k {
			(*c.hs)[i].Value = []byte(v)
			return
		}
	}
	*c.hs = append(*c.hs, kafka.Header{Key: k, Value: []byte(v)})
}

func (c headerCarrier) Keys() []string {
	ks := make([]string, 0, len(*c.hs))
	for _, h := range *c.hs {
		ks = append(ks, h.Key)
	}
	return ks
}

func headerValue(hs []kafka.Header, k string) string {
	for _, h := range hs {
		if h.Key == k {
			return string(h.Value)
		}
	}
	return ""
}
