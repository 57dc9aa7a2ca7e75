package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/availability"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/timezone"
)

// BeforeReader is the read side of the event store the validator needs.
type BeforeReader interface {
	QueryBefore(ctx context.Context, cutoffUTC time.Time) ([]model.BookedEvent, error)
}

// ValidatedBooking is a request that passed every check. Nothing is persisted.
type ValidatedBooking struct {
	Start           time.Time
	DurationMinutes int
	Timezone        string
}

// Slot is the booked interval in absolute time.
func (v ValidatedBooking) Slot() availability.Slot {
	return availability.Slot{Start: v.Start, DurationMinutes: v.DurationMinutes}
}

// Validator runs the checks a booking request must pass before it is stored.
type Validator struct {
	conv   *timezone.Converter
	gen    *availability.Generator
	store  BeforeReader
	window availability.WorkingWindow
}

func NewValidator(conv *timezone.Converter, store BeforeReader, window availability.WorkingWindow) *Validator {
	return &Validator{
		conv:   conv,
		gen:    availability.NewGenerator(conv),
		store:  store,
		window: window,
	}
}

// Validate checks a booking request and stops at the first failure, in this
// order: duration, date-time and zone, working hours, conflicts.
func (v *Validator) Validate(ctx context.Context, localDateTime string, durationMinutes int, tz string) (ValidatedBooking, error) {
	if durationMinutes <= 0 {
		return ValidatedBooking{}, fmt.Errorf("%w: got %d", model.ErrInvalidDuration, durationMinutes)
	}
	start, err := v.conv.ToInstant(localDateTime, tz)
	if err != nil {
		return ValidatedBooking{}, err
	}
	booking := ValidatedBooking{Start: start, DurationMinutes: durationMinutes, Timezone: tz}
	slot := booking.Slot()

	if err := v.checkWorkingHours(slot, tz); err != nil {
		return ValidatedBooking{}, err
	}

	existing, err := v.store.QueryBefore(ctx, slot.End())
	if err != nil {
		return ValidatedBooking{}, model.StoreError("query before", err)
	}
	for _, e := range existing {
		if availability.Overlaps(slot, availability.Slot{Start: e.Start, DurationMinutes: e.DurationMinutes}) {
			return ValidatedBooking{}, model.ErrSlotConflict
		}
	}
	return booking, nil
}

// checkWorkingHours compares against the window of the local calendar day the
// slot starts on.
func (v *Validator) checkWorkingHours(slot availability.Slot, tz string) error {
	if slot.DurationMinutes > availability.MaxDurationMinutes {
		return fmt.Errorf("%w: %d minutes is longer than a day", model.ErrOutsideWorkingHours, slot.DurationMinutes)
	}
	loc, err := v.conv.Location(tz)
	if err != nil {
		return err
	}
	day := timezone.DateOf(slot.Start.In(loc))
	windowStart, windowEnd, err := v.gen.Bounds(day, v.window, tz)
	if err != nil {
		return err
	}
	if v.window.Empty() || slot.Start.Before(windowStart) || slot.End().After(windowEnd) {
		return fmt.Errorf("%w: %02d:00-%02d:00 %s", model.ErrOutsideWorkingHours, v.window.StartHour, v.window.EndHour, tz)
	}
	return nil
}
