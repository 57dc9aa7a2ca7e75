package outbox

import (
	"encoding/json"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

const (
	// TopicBookingCreated is both the event type and the kafka topic.
	TopicBookingCreated = "scheduling.booking.created.v1"
	// Source identifies this service in message headers.
	Source = "scheduling-service"
)

// Event is the envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type bookingCreatedPayload struct {
	EventID         string `json:"event_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	CreatedAt       string `json:"created_at"`
}

func BookingCreated(e model.BookedEvent) (Event, error) {
	payload, err := json.Marshal(bookingCreatedPayload{
		EventID:         e.ID,
		StartTime:       e.Start.UTC().Format(time.RFC3339),
		EndTime:         e.End().UTC().Format(time.RFC3339),
		DurationMinutes: e.DurationMinutes,
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "event",
		AggregateID:   e.ID,
		EventType:     TopicBookingCreated,
		Payload:       payload,
	}, nil
}
