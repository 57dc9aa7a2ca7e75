package storage

import (
	"context"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

// EventStore persists bookings. All instants are UTC.
type EventStore interface {
	// QueryRange returns events whose start lies in [startUTC, endUTC],
	// ordered by start.
	QueryRange(ctx context.Context, startUTC, endUTC time.Time) ([]model.BookedEvent, error)
	// QueryBefore returns events that start strictly before cutoffUTC.
	QueryBefore(ctx context.Context, cutoffUTC time.Time) ([]model.BookedEvent, error)
	// Create persists a booking and returns it with its identity and
	// creation time. It does not check working hours.
	Create(ctx context.Context, startUTC time.Time, durationMinutes int) (model.BookedEvent, error)
}

const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
)
