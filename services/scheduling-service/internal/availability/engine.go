package availability

import (
	"context"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/timezone"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RangeReader is the read side of the event store the engine needs.
type RangeReader interface {
	QueryRange(ctx context.Context, startUTC, endUTC time.Time) ([]model.BookedEvent, error)
}

// Engine computes free slots for a local day. It keeps no state between
// calls, so two calls with no booking in between return the same slots.
type Engine struct {
	gen         *Generator
	conv        *timezone.Converter
	store       RangeReader
	window      WorkingWindow
	slotMinutes int
}

func NewEngine(conv *timezone.Converter, store RangeReader, window WorkingWindow, slotMinutes int) *Engine {
	return &Engine{
		gen:         NewGenerator(conv),
		conv:        conv,
		store:       store,
		window:      window,
		slotMinutes: slotMinutes,
	}
}

// FreeSlots returns the UTC starts of the unbooked slots on date in tz.
// Bookings are fetched for the local day, not the UTC day, so nothing leaks in
// from neighbouring dates near midnight.
func (e *Engine) FreeSlots(ctx context.Context, date, tz string) ([]time.Time, error) {
	ctx, span := otel.Tracer("scheduling-service/availability").Start(ctx, "availability.FreeSlots",
		trace.WithAttributes(
			attribute.String("scheduling.date", date),
			attribute.String("scheduling.timezone", tz),
		),
	)
	defer span.End()

	candidates, err := e.gen.Generate(date, e.window, e.slotMinutes, tz)
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd, err := e.conv.DayBounds(date, tz)
	if err != nil {
		return nil, err
	}

	events, err := e.store.QueryRange(ctx, dayStart, dayEnd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query range failed")
		return nil, model.StoreError("query range", err)
	}

	free := FreeOf(candidates, e.slotMinutes, BusyFrom(events))
	span.SetAttributes(
		attribute.Int("scheduling.booked", len(events)),
		attribute.Int("scheduling.free", len(free)),
	)
	return free, nil
}
