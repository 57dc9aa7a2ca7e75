package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreInjectedClockAndIDs(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	var n int
	store := NewMemoryStore(
		WithClock(func() time.Time { return fixed }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	evt, err := store.Create(context.Background(), time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC), 30)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if evt.ID != "id-1" || !evt.CreatedAt.Equal(fixed) || evt.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestMemoryStoreRejectsOverlap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)

	if _, err := store.Create(ctx, start, 30); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, start.Add(15*time.Minute), 30); !errors.Is(err, model.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	if _, err := store.Create(ctx, start.Add(30*time.Minute), 30); err != nil {
		t.Fatalf("back-to-back create failed: %v", err)
	}
	if _, err := store.Create(ctx, start.Add(-30*time.Minute), 30); err != nil {
		t.Fatalf("back-to-back create before failed: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 events, got %d", store.Len())
	}
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	store := NewMemoryStore()
	start := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	var ok, conflicts atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(context.Background(), start, 30)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, model.ErrSlotConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 1 || conflicts.Load() != 19 {
		t.Fatalf("expected 1 success and 19 conflicts, got %d and %d", ok.Load(), conflicts.Load())
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	if _, err := store.QueryRange(ctx, time.Now(), time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := store.Create(ctx, time.Now(), 30); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
