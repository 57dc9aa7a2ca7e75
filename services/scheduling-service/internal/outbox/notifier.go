package outbox

import (
	"context"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/kafkax"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/google/uuid"
)

// Notifier publishes booking events straight to kafka. It serves stores that
// have no transactional outbox; delivery is at most once.
type Notifier struct {
	writer MessageWriter
}

func NewNotifier(writer MessageWriter) *Notifier {
	return &Notifier{writer: writer}
}

func (n *Notifier) BookingCreated(ctx context.Context, e model.BookedEvent) error {
	evt, err := BookingCreated(e)
	if err != nil {
		return err
	}
	meta := kafkax.EventMeta{EventID: uuid.NewString(), EventType: evt.EventType, Source: Source, OccurredAt: e.CreatedAt}
	return n.writer.WriteMessages(ctx, kafkax.NewMessage(ctx, meta, evt.AggregateID, evt.Payload))
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}
