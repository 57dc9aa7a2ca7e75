package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

// Policy decides what happens to a wall-clock time that falls inside a
// daylight-saving transition.
type Policy int

const (
	// PolicyPreTransition resolves gaps and overlaps with the offset that was
	// in force before the transition.
	PolicyPreTransition Policy = iota
	// PolicyReject fails with ErrNonexistentLocalTime or ErrAmbiguousLocalTime.
	PolicyReject
)

// ParsePolicy reads a DST_POLICY value. Empty means PolicyPreTransition.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pre_transition":
		return PolicyPreTransition, nil
	case "reject":
		return PolicyReject, nil
	default:
		return 0, fmt.Errorf("unknown DST policy %q (want pre_transition or reject)", s)
	}
}

var (
	ErrNonexistentLocalTime = errors.New("local time falls in a daylight-saving gap")
	ErrAmbiguousLocalTime   = errors.New("local time is ambiguous (daylight-saving overlap)")
)

const (
	dateLayout  = "2006-01-02"
	localLayout = "2006-01-02T15:04:05"
)

// Layouts accepted for wall-clock input. Fractional seconds are accepted by
// time.Parse after any seconds field.
var localLayouts = []string{
	localLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// Date is a calendar date with no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD, failing with ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", model.ErrInvalidDate, s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateOf is the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// At returns the wall clock at hour:00 on d. Hour 24 is the next midnight.
func (d Date) At(hour int) LocalDateTime {
	return wallOf(time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// LocalDateTime is a wall-clock reading with no zone attached.
type LocalDateTime struct {
	Date
	Hour, Minute, Second, Nanosecond int
}

func wallOf(t time.Time) LocalDateTime {
	return LocalDateTime{
		Date:       DateOf(t),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

func (w LocalDateTime) asUTC() time.Time {
	return time.Date(w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second, w.Nanosecond, time.UTC)
}

// Converter maps between wall clocks in named zones and UTC instants.
type Converter struct {
	table  *Table
	policy Policy
}

func NewConverter(table *Table, policy Policy) *Converter {
	return &Converter{table: table, policy: policy}
}

func (c *Converter) Location(tz string) (*time.Location, error) {
	return c.table.Resolve(tz)
}

func (c *Converter) Names() []string {
	return c.table.Names()
}

// ToInstant interprets localDateTime as wall-clock time in tz. Input carrying
// an explicit offset (RFC 3339) already names an instant and is returned as is.
func (c *Converter) ToInstant(localDateTime, tz string) (time.Time, error) {
	loc, err := c.table.Resolve(tz)
	if err != nil {
		return time.Time{}, err
	}
	s := strings.TrimSpace(localDateTime)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return c.Resolve(wallOf(t), loc)
	}
	return time.Time{}, fmt.Errorf("%w: %q", model.ErrInvalidDateTime, localDateTime)
}

// ToLocal renders instant in tz as RFC 3339 with the zone offset. The output
// parses back to the same instant with ToInstant.
func (c *Converter) ToLocal(instant time.Time, tz string) (string, error) {
	loc, err := c.table.Resolve(tz)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(time.RFC3339Nano), nil
}

// DayBounds returns the first and last instant of the local calendar day
// date in tz. Both bounds are inclusive.
func (c *Converter) DayBounds(date, tz string) (time.Time, time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	loc, err := c.table.Resolve(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := c.ResolveEdge(d.At(0), loc)
	next := c.ResolveEdge(d.At(24), loc)
	return start, next.Add(-time.Nanosecond), nil
}

// ResolveEdge resolves a boundary of a local period (day start, working-hour
// edge). It never rejects: an edge inside a transition still has to produce a
// usable instant, so it always uses the pre-transition offset.
func (c *Converter) ResolveEdge(w LocalDateTime, loc *time.Location) time.Time {
	t, _ := resolve(w, loc, PolicyPreTransition)
	return t
}

// Resolve maps a wall clock in loc to its UTC instant, applying the DST policy
// when the wall clock is skipped or repeated.
func (c *Converter) Resolve(w LocalDateTime, loc *time.Location) (time.Time, error) {
	return resolve(w, loc, c.policy)
}

func resolve(w LocalDateTime, loc *time.Location, policy Policy) (time.Time, error) {
	naive := w.asUTC()

	// Offsets a day either side bracket any single transition near w.
	_, offBefore := naive.Add(-24 * time.Hour).In(loc).Zone()
	_, offAfter := naive.Add(24 * time.Hour).In(loc).Zone()

	before := naive.Add(-time.Duration(offBefore) * time.Second).UTC()
	if offBefore == offAfter {
		return before, nil
	}
	after := naive.Add(-time.Duration(offAfter) * time.Second).UTC()

	beforeOK := wallOf(before.In(loc)) == w
	afterOK := wallOf(after.In(loc)) == w
	switch {
	case beforeOK && afterOK:
		if policy == PolicyReject {
			return time.Time{}, fmt.Errorf("%w: %w", model.ErrInvalidDateTime, ErrAmbiguousLocalTime)
		}
		return before, nil
	case beforeOK:
		return before, nil
	case afterOK:
		return after, nil
	default:
		if policy == PolicyReject {
			return time.Time{}, fmt.Errorf("%w: %w", model.ErrInvalidDateTime, ErrNonexistentLocalTime)
		}
		return before, nil
	}
}
