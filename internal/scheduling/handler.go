package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/schedule"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

// Handler exposes the scheduling engine over HTTP.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates a scheduling HTTP handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// Availability handles GET /availability requests.
// Query params: from (RFC3339 or 2006-01-02), days, service, duration, time_of_day.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := time.Now()
	if fromStr := q.Get("from"); fromStr != "" {
		parsed, err := parseTimeParam(fromStr)
		if err != nil {
			http.Error(w, "invalid from parameter", http.StatusBadRequest)
			return
		}
		from = parsed
	}

	days := 7
	if daysStr := q.Get("days"); daysStr != "" {
		if parsed, err := strconv.Atoi(daysStr); err == nil && parsed > 0 && parsed <= 60 {
			days = parsed
		}
	}

	duration := 0
	if durStr := q.Get("duration"); durStr != "" {
		if parsed, err := strconv.Atoi(durStr); err == nil && parsed > 0 {
			duration = parsed
		}
	}

	pref := schedule.TimeOfDayAny
	if prefStr := q.Get("time_of_day"); prefStr != "" {
		pref = schedule.TimeOfDay(prefStr)
	}

	slots := h.engine.Availability(from, days, q.Get("service"), duration, pref)

	writeJSON(w, http.StatusOK, map[string]any{
		"slots": slots,
		"count": len(slots),
	})
}

// Book handles POST /appointments requests.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.engine.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Get handles GET /appointments/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.engine.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// ListAppointmentsResponse is the response for listing appointments.
type ListAppointmentsResponse struct {
	Appointments []*appointments.Appointment `json:"appointments"`
	Count        int                         `json:"count"`
}

// List handles GET /appointments requests.
// Query params: from, to (RFC3339 or 2006-01-02), service.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := time.Now().AddDate(0, 0, -30)
	to := time.Now().AddDate(0, 0, 90)
	if fromStr := q.Get("from"); fromStr != "" {
		parsed, err := parseTimeParam(fromStr)
		if err != nil {
			http.Error(w, "invalid from parameter", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if toStr := q.Get("to"); toStr != "" {
		parsed, err := parseTimeParam(toStr)
		if err != nil {
			http.Error(w, "invalid to parameter", http.StatusBadRequest)
			return
		}
		to = parsed
	}

	appts := h.engine.List(from, to, q.Get("service"))
	writeJSON(w, http.StatusOK, ListAppointmentsResponse{Appointments: appts, Count: len(appts)})
}

// Reschedule handles POST /appointments/{id}/reschedule requests.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode reschedule request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.engine.Reschedule(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Cancel handles POST /appointments/{id}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	result, err := h.engine.Cancel(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateRecurring handles POST /recurring requests.
func (h *Handler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req RecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode recurring request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.engine.CreateRecurring(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// GetRecurring handles GET /recurring/{id} requests.
func (h *Handler) GetRecurring(w http.ResponseWriter, r *http.Request) {
	sched, err := h.engine.GetRecurring(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// CancelRecurring handles POST /recurring/{id}/cancel requests.
func (h *Handler) CancelRecurring(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	result, err := h.engine.CancelRecurring(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// errorResponse is the JSON error envelope. Kind discriminates the failure
// so clients can branch without parsing messages.
type errorResponse struct {
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	Rule         string `json:"rule,omitempty"`
	Field        string `json:"field,omitempty"`
	Alternatives any    `json:"alternatives,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		slotErr       *SlotUnavailableError
		policyErr     *PolicyViolationError
		validationErr *ValidationError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Kind: "not_found", Message: "appointment not found"})
	case errors.As(err, &slotErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Kind:         "slot_unavailable",
			Message:      slotErr.Reason,
			Alternatives: slotErr.Alternatives,
		})
	case errors.As(err, &policyErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Kind:    "policy_violation",
			Message: policyErr.Detail,
			Rule:    policyErr.Rule,
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Kind:    "validation_error",
			Message: validationErr.Detail,
			Field:   validationErr.Field,
		})
	default:
		h.logger.Error("unexpected scheduling error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "internal", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// parseTimeParam accepts RFC3339 instants or bare dates.
func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
