package availability

import "time"

// MaxDurationMinutes is the longest slot that fits in one local day. Longer
// durations also risk overflowing time.Duration in End.
const MaxDurationMinutes = 24 * 60

// Slot is a start instant plus a length in minutes. Callers keep
// DurationMinutes in (0, MaxDurationMinutes].
type Slot struct {
	Start           time.Time
	DurationMinutes int
}

func (s Slot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two slots share any instant. Slots are half-open
// [Start, End), so back-to-back slots do not overlap.
func Overlaps(a, b Slot) bool {
	return a.Start.Before(b.End()) && b.Start.Before(a.End())
}

// WorkingWindow is the bookable part of a local calendar day, in whole hours.
// EndHour 24 means the following local midnight.
type WorkingWindow struct {
	StartHour int
	EndHour   int
}

func (w WorkingWindow) Empty() bool {
	return w.EndHour <= w.StartHour
}

func (w WorkingWindow) Valid() bool {
	return w.StartHour >= 0 && w.StartHour <= 24 && w.EndHour >= 0 && w.EndHour <= 24
}
