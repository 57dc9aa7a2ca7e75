package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/availability"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/google/uuid"
)

// MemoryStore keeps events in a start-ordered slice. Create refuses a slot
// that overlaps a stored one, the same guarantee the postgres exclusion
// constraint gives.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.BookedEvent
	now    func() time.Time
	newID  func() string
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func WithIDs(newID func() string) MemoryOption {
	return func(s *MemoryStore) { s.newID = newID }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) QueryRange(ctx context.Context, startUTC, endUTC time.Time) ([]model.BookedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.BookedEvent{}
	for _, e := range s.events {
		if e.Start.After(endUTC) {
			break
		}
		if !e.Start.Before(startUTC) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) QueryBefore(ctx context.Context, cutoffUTC time.Time) ([]model.BookedEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.BookedEvent{}
	for _, e := range s.events {
		if !e.Start.Before(cutoffUTC) {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, startUTC time.Time, durationMinutes int) (model.BookedEvent, error) {
	if err := ctx.Err(); err != nil {
		return model.BookedEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := availability.Slot{Start: startUTC.UTC(), DurationMinutes: durationMinutes}
	for _, e := range s.events {
		if availability.Overlaps(slot, availability.Slot{Start: e.Start, DurationMinutes: e.DurationMinutes}) {
			return model.BookedEvent{}, model.ErrSlotConflict
		}
	}

	evt := model.BookedEvent{
		ID:              s.newID(),
		Start:           slot.Start,
		DurationMinutes: durationMinutes,
		CreatedAt:       s.now().UTC(),
	}
	i, _ := slices.BinarySearchFunc(s.events, evt.Start, func(e model.BookedEvent, t time.Time) int {
		return cmp.Compare(e.Start.UnixNano(), t.UnixNano())
	})
	s.events = slices.Insert(s.events, i, evt)
	return evt, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
