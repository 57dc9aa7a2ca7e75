package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/db"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/outbox"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore keeps events in the events table. The table's exclusion
// constraint rejects overlapping rows, so a race past the service lock still
// ends in ErrSlotConflict.
type PostgresStore struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

// NewPostgresStore returns a store that also records a booking-created
// outbox row in the insert transaction when outboxRepo is non-nil.
func NewPostgresStore(pool *db.Pool, outboxRepo *outbox.Repository) *PostgresStore {
	return &PostgresStore{pool: pool, outbox: outboxRepo}
}

func (s *PostgresStore) QueryRange(ctx context.Context, startUTC, endUTC time.Time) ([]model.BookedEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, start_time, duration_minutes, created_at
		FROM events
		WHERE start_time >= $1 AND start_time <= $2
		ORDER BY start_time ASC
	`, startUTC, endUTC)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (s *PostgresStore) QueryBefore(ctx context.Context, cutoffUTC time.Time) ([]model.BookedEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, start_time, duration_minutes, created_at
		FROM events
		WHERE start_time < $1
		ORDER BY start_time ASC
	`, cutoffUTC)
	if err != nil {
		return nil, err
	}
	return scanEvents(rows)
}

func (s *PostgresStore) Create(ctx context.Context, startUTC time.Time, durationMinutes int) (model.BookedEvent, error) {
	evt := model.BookedEvent{Start: startUTC.UTC(), DurationMinutes: durationMinutes}
	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO events (start_time, end_time, duration_minutes)
			VALUES ($1, $2, $3)
			RETURNING id::text, created_at
		`, evt.Start, evt.End(), evt.DurationMinutes).Scan(&evt.ID, &evt.CreatedAt)
		if err != nil {
			return err
		}
		evt.CreatedAt = evt.CreatedAt.UTC()

		if s.outbox == nil {
			return nil
		}
		out, err := outbox.BookingCreated(evt)
		if err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, out)
	})
	if err != nil {
		if IsConflict(err) {
			return model.BookedEvent{}, model.ErrSlotConflict
		}
		return model.BookedEvent{}, err
	}
	return evt, nil
}

func scanEvents(rows pgx.Rows) ([]model.BookedEvent, error) {
	defer rows.Close()

	events := []model.BookedEvent{}
	for rows.Next() {
		var e model.BookedEvent
		if err := rows.Scan(&e.ID, &e.Start, &e.DurationMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Start = e.Start.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// IsConflict reports an exclusion-constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}
