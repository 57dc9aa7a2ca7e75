package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/httpx"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/model"
)

// Scheduler is the service the handlers call.
type Scheduler interface {
	GetFreeSlots(ctx context.Context, date, tz string) ([]time.Time, error)
	CreateBooking(ctx context.Context, localDateTime string, durationMinutes int, tz string) (model.BookedEvent, error)
	GetBookings(ctx context.Context, startDate, endDate, tz string) ([]model.BookedEvent, error)
	ListTimezones() []string
	LocalTime(instant time.Time, tz string) (string, error)
}

type SchedulingHandler struct {
	svc    Scheduler
	logger *slog.Logger
}

func NewSchedulingHandler(svc Scheduler, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{svc: svc, logger: logger}
}

func (h *SchedulingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/free-slots", h.FreeSlots)
	mux.HandleFunc("POST /api/events", h.Create)
	mux.HandleFunc("GET /api/events", h.List)
	mux.HandleFunc("GET /api/timezones", h.Timezones)
}

// minutes accepts a JSON number or a numeric string.
type minutes struct {
	value int
	set   bool
}

func (m *minutes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			return nil
		}
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return errors.New("duration must be a number")
	}
	if math.Abs(f) >= 1<<62 {
		return errors.New("duration is out of range")
	}
	if f != math.Trunc(f) {
		return errors.New("duration must be a whole number of minutes")
	}
	m.value, m.set = int(f), true
	return nil
}

type createEventRequest struct {
	DateTime string  `json:"dateTime"`
	Duration minutes `json:"duration"`
	Timezone string  `json:"timezone"`
}

type eventItem struct {
	ID        string `json:"id"`
	Start     string `json:"start"`
	Duration  int    `json:"duration"`
	CreatedAt string `json:"createdAt"`
	LocalTime string `json:"localTime,omitempty"`
}

type createEventResponse struct {
	Success bool      `json:"success"`
	Event   eventItem `json:"event"`
}

func toItem(e model.BookedEvent) eventItem {
	return eventItem{
		ID:        e.ID,
		Start:     e.Start.UTC().Format(time.RFC3339),
		Duration:  e.DurationMinutes,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *SchedulingHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		httpx.WriteError(w, http.StatusBadRequest, "date is required")
		return
	}

	slots, err := h.svc.GetFreeSlots(r.Context(), date, strings.TrimSpace(q.Get("timezone")))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.UTC().Format(time.RFC3339))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *SchedulingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.DateTime = strings.TrimSpace(req.DateTime)
	if req.DateTime == "" || !req.Duration.set {
		httpx.WriteError(w, http.StatusBadRequest, "dateTime and duration are required")
		return
	}

	evt, err := h.svc.CreateBooking(r.Context(), req.DateTime, req.Duration.value, strings.TrimSpace(req.Timezone))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, createEventResponse{Success: true, Event: toItem(evt)})
}

func (h *SchedulingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate := strings.TrimSpace(q.Get("startDate"))
	endDate := strings.TrimSpace(q.Get("endDate"))
	tz := strings.TrimSpace(q.Get("timezone"))
	if startDate == "" || endDate == "" {
		httpx.WriteError(w, http.StatusBadRequest, "startDate and endDate are required")
		return
	}

	events, err := h.svc.GetBookings(r.Context(), startDate, endDate, tz)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]eventItem, 0, len(events))
	for _, e := range events {
		item := toItem(e)
		// The zone was already accepted by GetBookings.
		item.LocalTime, _ = h.svc.LocalTime(e.Start, tz)
		items = append(items, item)
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *SchedulingHandler) Timezones(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.svc.ListTimezones())
}

func (h *SchedulingHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		h.logger.Error("event store unavailable", "request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		msg = model.ErrStoreUnavailable.Error()
	case http.StatusInternalServerError:
		h.logger.Error("request failed", "request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		msg = "internal server error"
	case http.StatusUnprocessableEntity:
		msg = model.ErrSlotConflict.Error()
	}
	httpx.WriteError(w, status, msg)
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSlotConflict):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
