package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStoreErrorWrapsDriverError(t *testing.T) {
	driverErr := errors.New("connection reset")
	err := StoreError("query range", driverErr)
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, driverErr) {
		t.Fatalf("expected both sentinel and cause, got %v", err)
	}
	if StoreError("noop", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
	if got := StoreError("create", ErrSlotConflict); got != ErrSlotConflict {
		t.Fatalf("conflicts must pass through untouched, got %v", got)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(fmt.Errorf("%w: bad", ErrOutsideWorkingHours)) {
		t.Fatal("expected working-hours error to be a validation error")
	}
	if IsValidation(ErrSlotConflict) || IsValidation(StoreError("x", errors.New("y"))) {
		t.Fatal("conflicts and store errors are not validation errors")
	}
}

func TestBookedEventEnd(t *testing.T) {
	start := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
	e := BookedEvent{Start: start, DurationMinutes: 45}
	if !e.End().Equal(start.Add(45 * time.Minute)) {
		t.Fatalf("unexpected end %s", e.End())
	}
}
