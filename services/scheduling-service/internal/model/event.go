package model

import "time"

// BookedEvent is a persisted booking. Start and CreatedAt are UTC.
type BookedEvent struct {
	ID              string
	Start           time.Time
	DurationMinutes int
	CreatedAt       time.Time
}

func (e BookedEvent) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}
