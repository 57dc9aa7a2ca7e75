package availability

import (
	"fmt"
	"iter"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/timezone"
)

// Generator produces candidate slot starts for a local working day.
type Generator struct {
	conv *timezone.Converter
}

func NewGenerator(conv *timezone.Converter) *Generator {
	return &Generator{conv: conv}
}

// Generate returns the slot starts on date in tz, as UTC instants: the first
// at window.StartHour:00 local time, then every slotDurationMinutes, keeping
// only slots that end no later than window.EndHour:00. Arguments are checked
// before the sequence is returned; the sequence itself cannot fail and can be
// ranged over any number of times.
func (g *Generator) Generate(date string, window WorkingWindow, slotDurationMinutes int, tz string) (iter.Seq[time.Time], error) {
	d, err := timezone.ParseDate(date)
	if err != nil {
		return nil, err
	}
	loc, err := g.conv.Location(tz)
	if err != nil {
		return nil, err
	}
	if slotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidDuration, slotDurationMinutes)
	}
	if !window.Valid() {
		return nil, fmt.Errorf("working window %d-%d: hours must be within 0..24", window.StartHour, window.EndHour)
	}
	if window.Empty() {
		return func(func(time.Time) bool) {}, nil
	}

	windowStart, windowEnd := g.bounds(d, window, loc)
	step := time.Duration(slotDurationMinutes) * time.Minute

	return func(yield func(time.Time) bool) {
		for t := windowStart; !t.Add(step).After(windowEnd); t = t.Add(step) {
			if !yield(t) {
				return
			}
		}
	}, nil
}

// Bounds returns the UTC instants of the window edges on date in tz.
func (g *Generator) Bounds(date timezone.Date, window WorkingWindow, tz string) (time.Time, time.Time, error) {
	loc, err := g.conv.Location(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := g.bounds(date, window, loc)
	return start, end, nil
}

func (g *Generator) bounds(d timezone.Date, window WorkingWindow, loc *time.Location) (time.Time, time.Time) {
	return g.conv.ResolveEdge(d.At(window.StartHour), loc), g.conv.ResolveEdge(d.At(window.EndHour), loc)
}
