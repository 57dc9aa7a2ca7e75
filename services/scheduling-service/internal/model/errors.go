package model

import (
	"errors"
	"fmt"
)

// Every failure the scheduling core reports wraps exactly one of these, so
// callers classify with errors.Is.
var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidDateTime     = errors.New("invalid date-time")
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrInvalidDuration     = errors.New("duration must be a positive number of minutes")
	ErrOutsideWorkingHours = errors.New("event must be within working hours")
	ErrSlotConflict        = errors.New("this time slot is already booked")
	ErrInvalidRange        = errors.New("start date must not be after end date")
	ErrStoreUnavailable    = errors.New("event store unavailable")
)

// StoreError wraps a collaborator failure as ErrStoreUnavailable while
// keeping the driver error reachable for logging.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrSlotConflict) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// IsValidation reports whether err is a caller mistake rather than an
// infrastructure failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidDate,
		ErrInvalidDateTime,
		ErrInvalidTimezone,
		ErrInvalidDuration,
		ErrOutsideWorkingHours,
		ErrInvalidRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
