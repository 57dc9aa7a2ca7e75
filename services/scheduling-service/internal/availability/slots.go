package availability

import (
	"iter"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

// FreeOf returns, in generation order, the candidates whose slot of
// durationMinutes overlaps none of the busy slots.
func FreeOf(candidates iter.Seq[time.Time], durationMinutes int, busy []Slot) []time.Time {
	slots := []time.Time{}
	if durationMinutes <= 0 {
		return slots
	}
	for t := range candidates {
		if !overlapsAny(Slot{Start: t, DurationMinutes: durationMinutes}, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(s Slot, busy []Slot) bool {
	for _, b := range busy {
		if Overlaps(s, b) {
			return true
		}
	}
	return false
}

// BusyFrom converts stored bookings into slots.
func BusyFrom(events []model.BookedEvent) []Slot {
	busy := make([]Slot, 0, len(events))
	for _, e := range events {
		busy = append(busy, Slot{Start: e.Start.UTC(), DurationMinutes: e.DurationMinutes})
	}
	return busy
}
