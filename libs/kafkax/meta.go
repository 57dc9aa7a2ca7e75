package kafkax

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID    = "event_id"
	HeaderEventType  = "event_type"
	HeaderSource     = "source"
	HeaderOccurredAt = "occurred_at"
)

// EventMeta describes a domain event independently of its payload.
type EventMeta struct {
	EventID    string
	EventType  string
	Source     string
	OccurredAt time.Time
}

// Headers renders m as message headers. Empty fields are omitted.
func (m EventMeta) Headers() []kafka.Header {
	headers := make([]kafka.Header, 0, 4)
	add := func(k, v string) {
		if v != "" {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
	}
	add(HeaderEventID, m.EventID)
	add(HeaderEventType, m.EventType)
	add(HeaderSource, m.Source)
	if !m.OccurredAt.IsZero() {
		add(HeaderOccurredAt, m.OccurredAt.UTC().Format(time.RFC3339Nano))
	}
	return headers
}

// NewMessage builds a message on the topic named by meta.EventType, keyed by
// aggregate id, with meta and the trace context of ctx in its headers.
func NewMessage(ctx context.Context, meta EventMeta, key string, value []byte) kafka.Message {
	return kafka.Message{
		Topic:   meta.EventType,
		Key:     []byte(key),
		Value:   value,
		Headers: InjectTraceHeaders(ctx, meta.Headers()),
	}
}

// ExtractEventMeta reads meta back from msg, falling back to the key and
// topic for messages produced without headers.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	m := EventMeta{
		EventID:   HeaderValue(msg.Headers, HeaderEventID),
		EventType: HeaderValue(msg.Headers, HeaderEventType),
		Source:    HeaderValue(msg.Headers, HeaderSource),
	}
	if m.EventID == "" {
		m.EventID = string(msg.Key)
	}
	if m.EventType == "" {
		m.EventType = msg.Topic
	}
	if raw := HeaderValue(msg.Headers, HeaderOccurredAt); raw != "" {
		m.OccurredAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return m
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// SplitBrokers parses a comma separated broker list, skipping blanks.
func SplitBrokers(raw string) []string {
	var brokers []string
	for b := range strings.SplitSeq(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
