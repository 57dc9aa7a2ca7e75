package storage

import (
	"context"
	"testing"
	"time"
)

// runStoreContract exercises the EventStore contract against an empty store.
func runStoreContract(t *testing.T, store EventStore) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2031, 1, 6, 0, 0, 0, 0, time.UTC)

	b, err := store.Create(ctx, day.Add(15*time.Hour), 60)
	if err != nil {
		t.Fatalf("create b failed: %v", err)
	}
	a, err := store.Create(ctx, day.Add(14*time.Hour), 30)
	if err != nil {
		t.Fatalf("create a failed: %v", err)
	}
	if _, err := store.Create(ctx, day.Add(38*time.Hour), 30); err != nil {
		t.Fatalf("create next-day event failed: %v", err)
	}

	if a.ID == "" || b.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() || !a.Start.Equal(day.Add(14*time.Hour)) || a.DurationMinutes != 30 {
		t.Fatalf("unexpected created event %+v", a)
	}

	got, err := store.QueryRange(ctx, day, day.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		t.Fatalf("QueryRange failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("expected [a b] ordered by start, got %+v", got)
	}
	if got[1].DurationMinutes != 60 || !got[1].Start.Equal(b.Start) {
		t.Fatalf("unexpected stored event %+v", got[1])
	}

	got, err = store.QueryRange(ctx, a.Start, b.Start)
	if err != nil {
		t.Fatalf("QueryRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("range bounds must be inclusive, got %d events", len(got))
	}

	got, err = store.QueryBefore(ctx, b.Start)
	if err != nil {
		t.Fatalf("QueryBefore failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("QueryBefore must be strict, got %+v", got)
	}

	got, err = store.QueryRange(ctx, day.Add(-48*time.Hour), day.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("QueryRange failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no events, got %+v", got)
	}
}
