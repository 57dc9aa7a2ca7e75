package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/kafkax"
	otelx "github.com/Satyamdhote/appointment-scheduling-backend/libs/otel"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const sampleTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func sampleEvent() model.BookedEvent {
	return model.BookedEvent{
		ID:              "evt-1",
		Start:           time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		CreatedAt:       time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestBookingCreatedPayload(t *testing.T) {
	evt, err := BookingCreated(sampleEvent())
	if err != nil {
		t.Fatalf("BookingCreated failed: %v", err)
	}
	if evt.EventType != TopicBookingCreated || evt.AggregateID != "evt-1" || evt.AggregateType != "event" {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	var body map[string]any
	if err := json.Unmarshal(evt.Payload, &body); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if body["start_time"] != "2024-06-10T14:00:00Z" || body["end_time"] != "2024-06-10T14:45:00Z" {
		t.Fatalf("unexpected times in payload: %v", body)
	}
	if body["duration_minutes"] != float64(45) {
		t.Fatalf("unexpected duration in payload: %v", body["duration_minutes"])
	}
}

func TestRecordMessageRestoresTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	msg := recordMessage(context.Background(), Record{
		ID:          7,
		EventID:     "3f1d",
		AggregateID: "evt-1",
		EventType:   TopicBookingCreated,
		Payload:     []byte(`{}`),
		Trace:       otelx.TraceContext{Parent: sampleTraceparent},
	})
	if msg.Topic != TopicBookingCreated || string(msg.Key) != "evt-1" {
		t.Fatalf("unexpected message routing: topic=%s key=%s", msg.Topic, msg.Key)
	}
	if got := kafkax.HeaderValue(msg.Headers, "event_id"); got != "3f1d" {
		t.Fatalf("expected event_id header, got %q", got)
	}
	if got := kafkax.HeaderValue(msg.Headers, "traceparent"); got != sampleTraceparent {
		t.Fatalf("expected traceparent %q, got %q", sampleTraceparent, got)
	}
}

func TestNewWriterWithoutBrokers(t *testing.T) {
	if NewWriter(" , ") != nil {
		t.Fatal("expected nil writer without brokers")
	}
	w := NewWriter("localhost:9092")
	if w == nil {
		t.Fatal("expected writer")
	}
	_ = w.Close()
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNotifierBookingCreated(t *testing.T) {
	w := &fakeWriter{}
	n := NewNotifier(w)
	if err := n.BookingCreated(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("BookingCreated failed: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	meta := kafkax.ExtractEventMeta(w.msgs[0])
	if meta.EventType != TopicBookingCreated || meta.EventID == "" || meta.Source != Source || !meta.OccurredAt.Equal(sampleEvent().CreatedAt) {
		t.Fatalf("unexpected meta %+v", meta)
	}

	w.err = errors.New("broker down")
	if err := n.BookingCreated(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected writer error")
	}
	_ = n.Close()
	if !w.closed {
		t.Fatal("expected writer to be closed")
	}
}
