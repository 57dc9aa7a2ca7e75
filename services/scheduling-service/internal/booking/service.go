package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/availability"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/storage"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/timezone"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// createLockKey names the single calendar every booking competes for.
const createLockKey = "calendar"

var tracer = otel.Tracer("scheduling-service/booking")

// Notifier announces a created booking. Failures are logged, never returned
// to the caller.
type Notifier interface {
	BookingCreated(ctx context.Context, e model.BookedEvent) error
}

type Config struct {
	Window          availability.WorkingWindow
	SlotMinutes     int
	DefaultTimezone string
}

// Service is the set of scheduling operations the transports expose.
type Service struct {
	conv      *timezone.Converter
	store     storage.EventStore
	engine    *availability.Engine
	validator *Validator
	locker    Locker
	notifier  Notifier
	logger    *slog.Logger
	cfg       Config
}

type Option func(*Service)

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(conv *timezone.Converter, store storage.EventStore, logger *slog.Logger, cfg Config, opts ...Option) *Service {
	s := &Service{
		conv:      conv,
		store:     store,
		engine:    availability.NewEngine(conv, store, cfg.Window, cfg.SlotMinutes),
		validator: NewValidator(conv, store, cfg.Window),
		locker:    NewMutexLocker(),
		logger:    logger,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) zone(tz string) string {
	if tz == "" {
		return s.cfg.DefaultTimezone
	}
	return tz
}

// GetFreeSlots returns the unbooked slot starts on date in tz.
func (s *Service) GetFreeSlots(ctx context.Context, date, tz string) ([]time.Time, error) {
	return s.engine.FreeSlots(ctx, date, s.zone(tz))
}

// CreateBooking validates and stores a booking. Validation and the insert run
// under the create lock, so two requests for one slot cannot both succeed.
func (s *Service) CreateBooking(ctx context.Context, localDateTime string, durationMinutes int, tz string) (model.BookedEvent, error) {
	tz = s.zone(tz)
	ctx, span := tracer.Start(ctx, "booking.Create",
		trace.WithAttributes(
			attribute.String("scheduling.datetime", localDateTime),
			attribute.Int("scheduling.duration_minutes", durationMinutes),
			attribute.String("scheduling.timezone", tz),
		),
	)
	defer span.End()

	evt, err := s.createLocked(ctx, localDateTime, durationMinutes, tz)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.BookedEvent{}, err
	}
	span.SetAttributes(attribute.String("scheduling.event_id", evt.ID))
	s.logger.InfoContext(ctx, "booking created",
		"event_id", evt.ID,
		"start", evt.Start.Format(time.RFC3339),
		"duration_minutes", evt.DurationMinutes,
		"timezone", tz,
	)

	if s.notifier != nil {
		if err := s.notifier.BookingCreated(ctx, evt); err != nil {
			s.logger.WarnContext(ctx, "booking notification failed", "event_id", evt.ID, "err", err)
		}
	}
	return evt, nil
}

func (s *Service) createLocked(ctx context.Context, localDateTime string, durationMinutes int, tz string) (model.BookedEvent, error) {
	unlock, err := s.locker.Lock(ctx, createLockKey)
	if err != nil {
		return model.BookedEvent{}, model.StoreError("acquire create lock", err)
	}
	defer unlock()

	vb, err := s.validator.Validate(ctx, localDateTime, durationMinutes, tz)
	if err != nil {
		return model.BookedEvent{}, err
	}
	evt, err := s.store.Create(ctx, vb.Start, vb.DurationMinutes)
	if err != nil {
		return model.BookedEvent{}, model.StoreError("create", err)
	}
	return evt, nil
}

// GetBookings returns bookings starting between the beginning of startDate
// and the end of endDate, both local days in tz, ordered by start.
func (s *Service) GetBookings(ctx context.Context, startDate, endDate, tz string) ([]model.BookedEvent, error) {
	tz = s.zone(tz)
	ctx, span := tracer.Start(ctx, "booking.List",
		trace.WithAttributes(
			attribute.String("scheduling.start_date", startDate),
			attribute.String("scheduling.end_date", endDate),
			attribute.String("scheduling.timezone", tz),
		),
	)
	defer span.End()

	if _, err := timezone.ParseDate(startDate); err != nil {
		return nil, err
	}
	if _, err := timezone.ParseDate(endDate); err != nil {
		return nil, err
	}
	rangeStart, _, err := s.conv.DayBounds(startDate, tz)
	if err != nil {
		return nil, err
	}
	_, rangeEnd, err := s.conv.DayBounds(endDate, tz)
	if err != nil {
		return nil, err
	}
	if rangeStart.After(rangeEnd) {
		return nil, fmt.Errorf("%w: %s > %s", model.ErrInvalidRange, startDate, endDate)
	}

	events, err := s.store.QueryRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query range failed")
		return nil, model.StoreError("query range", err)
	}
	span.SetAttributes(attribute.Int("scheduling.count", len(events)))
	return events, nil
}

// ListTimezones returns the supported zone identifiers, sorted.
func (s *Service) ListTimezones() []string {
	return s.conv.Names()
}

// LocalTime renders instant in tz (or the default zone) for display.
func (s *Service) LocalTime(instant time.Time, tz string) (string, error) {
	return s.conv.ToLocal(instant, s.zone(tz))
}

func (s *Service) DefaultTimezone() string {
	return s.cfg.DefaultTimezone
}
