// Package scheduling implements the booking engine: it composes the business
// calendar, slot generator, and conflict detector over the appointment store
// to book, reschedule, and cancel appointments and to expand recurring
// series. External collaborators (persistence, calendar sync, meeting links,
// notifications) are injected and best-effort: the authoritative state change
// always lands first.
package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/observability/metrics"
	"github.com/hazelgrove/studio-scheduler/internal/schedule"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

const (
	// alternativeWindowDays bounds the search for alternative slots to a
	// week either side of the requested date.
	alternativeWindowDays = 7

	maxBookingAlternatives    = 5
	maxRescheduleAlternatives = 3
)

// Engine orchestrates all scheduling operations. Every public operation is a
// read-check-then-write critical section serialized by a single mutex, so
// two concurrent bookings can never both pass conflict detection.
type Engine struct {
	mu sync.Mutex

	store     *appointments.Store
	cal       *schedule.Calendar
	slots     *schedule.SlotGenerator
	conflicts *schedule.ConflictDetector
	policy    *schedule.Policy

	persistence PersistenceBackend
	calendar    CalendarSync
	meetings    MeetingLinkProvider

	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewEngine constructs the scheduling engine. Store and calendar are
// required; collaborators may be nil, in which case the corresponding side
// effects are skipped.
func NewEngine(
	store *appointments.Store,
	cal *schedule.Calendar,
	persistence PersistenceBackend,
	calendar CalendarSync,
	meetings MeetingLinkProvider,
	m *metrics.SchedulingMetrics,
	logger *logging.Logger,
) *Engine {
	if store == nil {
		panic("scheduling: store required")
	}
	if cal == nil {
		panic("scheduling: calendar required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	policy := cal.Policy()
	return &Engine{
		store:       store,
		cal:         cal,
		slots:       schedule.NewSlotGenerator(cal),
		conflicts:   schedule.NewConflictDetector(policy, store),
		policy:      policy,
		persistence: persistence,
		calendar:    calendar,
		meetings:    meetings,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the engine's clock, including the conflict detector's.
// Tests use this.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.conflicts.WithClock(now)
	return e
}

// Policy returns the scheduling policy in effect.
func (e *Engine) Policy() *schedule.Policy {
	return e.policy
}

// LoadState replays a previously saved snapshot into the store. Called once
// at process start; an empty backend yields an empty store.
func (e *Engine) LoadState(ctx context.Context) error {
	if e.persistence == nil {
		return nil
	}
	snap, err := e.persistence.Load(ctx)
	if err != nil {
		return fmt.Errorf("scheduling: load snapshot: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Restore(snap)
	e.logger.Info("scheduling: state loaded", "appointments", e.store.Len())
	return nil
}

// BookingRequest describes a booking intent.
type BookingRequest struct {
	CustomerName    string                    `json:"customer_name"`
	CustomerEmail   string                    `json:"customer_email,omitempty"`
	CustomerPhone   string                    `json:"customer_phone,omitempty"`
	ServiceType     string                    `json:"service_type"`
	Start           time.Time                 `json:"start"`
	DurationMinutes int                       `json:"duration_minutes,omitempty"`
	Location        appointments.LocationType `json:"location"`
	Notes           string                    `json:"notes,omitempty"`
}

// BookingResult is returned on a successful booking. Warnings carry
// collaborator failures that did not block the booking.
type BookingResult struct {
	Appointment *appointments.Appointment `json:"appointment"`
	Warnings    []string                  `json:"warnings,omitempty"`
}

// Book books an appointment or returns a SlotUnavailableError carrying up to
// five conflict-checked alternatives. No mutation occurs on any non-success
// path.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	start := e.now()
	defer func() { e.metrics.ObserveDuration("book", time.Since(start).Seconds()) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateBooking(&req); err != nil {
		e.metrics.ObserveOperation("book", "validation_error")
		return nil, err
	}

	slot := schedule.TimeSlot{
		Start:           req.Start,
		End:             req.Start.Add(time.Duration(req.DurationMinutes) * time.Minute),
		DurationMinutes: req.DurationMinutes,
		ServiceType:     req.ServiceType,
	}

	if err := e.checkSlot(slot, "", maxBookingAlternatives); err != nil {
		e.metrics.ObserveOperation("book", "rejected")
		return nil, err
	}

	now := e.now()
	appt := &appointments.Appointment{
		ID:              uuid.NewString(),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ServiceType:     req.ServiceType,
		ScheduledAt:     req.Start,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Status:          appointments.StatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	e.store.Put(appt)

	var warnings []string
	warnings = e.persist(ctx, warnings)

	// Side effects after the durable fact. Failures become warnings.
	if e.calendar != nil {
		eventID, err := e.calendar.CreateEvent(ctx, appt, req.Notes)
		if err != nil {
			e.logger.Error("scheduling: calendar sync failed", "appointment_id", appt.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("calendar sync failed: %v", err))
		} else {
			appt.CalendarEventID = eventID
			e.store.Put(appt)
		}
	}
	if req.Location == appointments.LocationOnline && e.meetings != nil {
		link, err := e.meetings.GenerateLink(ctx, appt.ID)
		if err != nil {
			e.logger.Error("scheduling: meeting link failed", "appointment_id", appt.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("meeting link generation failed: %v", err))
		} else {
			appt.MeetingLink = link
			e.store.Put(appt)
		}
	}

	e.metrics.ObserveOperation("book", "success")
	e.logger.Info("scheduling: appointment booked",
		"appointment_id", appt.ID,
		"service", appt.ServiceType,
		"start", appt.ScheduledAt.Format(time.RFC3339),
	)
	booked, _ := e.store.Get(appt.ID)
	return &BookingResult{Appointment: booked, Warnings: warnings}, nil
}

// RescheduleRequest describes a reschedule intent.
type RescheduleRequest struct {
	ID string `json:"id"`
	// NewStart is the requested replacement start instant.
	NewStart time.Time `json:"new_start"`
	// NewDurationMinutes optionally replaces the duration; zero keeps it.
	NewDurationMinutes int    `json:"new_duration_minutes,omitempty"`
	Reason             string `json:"reason,omitempty"`
	// Initiator is "customer" or "studio"; customer-initiated changes
	// inside the fee waiver window flag a fee.
	Initiator string `json:"initiator,omitempty"`
}

// RescheduleResult is returned on a successful reschedule.
type RescheduleResult struct {
	Appointment *appointments.Appointment `json:"appointment"`
	// FeeApplies reports fee eligibility; charging is the host's business.
	FeeApplies bool     `json:"fee_applies"`
	FeeCents   int      `json:"fee_cents,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Reschedule moves an appointment to a new time, excluding the appointment
// from its own conflict check. On conflict it returns up to three
// alternatives without mutating anything.
func (e *Engine) Reschedule(ctx context.Context, req RescheduleRequest) (*RescheduleResult, error) {
	start := e.now()
	defer func() { e.metrics.ObserveDuration("reschedule", time.Since(start).Seconds()) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	appt, err := e.store.Get(req.ID)
	if err != nil {
		e.metrics.ObserveOperation("reschedule", "not_found")
		return nil, ErrNotFound
	}
	if appt.Status.Terminal() {
		e.metrics.ObserveOperation("reschedule", "terminal")
		return nil, &PolicyViolationError{
			Rule:   "terminal-state",
			Detail: fmt.Sprintf("appointment is %s and cannot be rescheduled", appt.Status),
		}
	}
	if req.NewStart.IsZero() {
		return nil, &ValidationError{Field: "new_start", Detail: "required"}
	}
	duration := appt.DurationMinutes
	if req.NewDurationMinutes != 0 {
		if req.NewDurationMinutes < 0 {
			return nil, &ValidationError{Field: "new_duration_minutes", Detail: "must be positive"}
		}
		duration = req.NewDurationMinutes
	}

	// The appointment's actual service type is threaded through here.
	slot := schedule.TimeSlot{
		Start:           req.NewStart,
		End:             req.NewStart.Add(time.Duration(duration) * time.Minute),
		DurationMinutes: duration,
		ServiceType:     appt.ServiceType,
	}
	if err := e.checkSlot(slot, appt.ID, maxRescheduleAlternatives); err != nil {
		e.metrics.ObserveOperation("reschedule", "rejected")
		return nil, err
	}

	now := e.now()
	feeApplies := false
	if req.Initiator == "customer" {
		hoursUntil := appt.ScheduledAt.Sub(now).Hours()
		if hoursUntil < float64(e.policy.RescheduleFeeWaiverHours) {
			feeApplies = true
		}
	}

	appt.RescheduleHistory = append(appt.RescheduleHistory, appointments.RescheduleEntry{
		OriginalStart: appt.ScheduledAt,
		NewStart:      req.NewStart,
		Reason:        req.Reason,
		Initiator:     req.Initiator,
		Timestamp:     now,
	})
	appt.ScheduledAt = req.NewStart
	appt.DurationMinutes = duration
	appt.Status = appointments.StatusRescheduled
	appt.UpdatedAt = now
	e.store.Put(appt)

	var warnings []string
	warnings = e.persist(ctx, warnings)

	if e.calendar != nil && appt.CalendarEventID != "" {
		if err := e.calendar.UpdateEvent(ctx, appt.CalendarEventID, appt.ScheduledAt, appt.End()); err != nil {
			e.logger.Error("scheduling: calendar update failed", "appointment_id", appt.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("calendar update failed: %v", err))
		}
	}

	e.metrics.ObserveOperation("reschedule", "success")
	e.logger.Info("scheduling: appointment rescheduled",
		"appointment_id", appt.ID,
		"new_start", appt.ScheduledAt.Format(time.RFC3339),
		"fee_applies", feeApplies,
	)
	return &RescheduleResult{
		Appointment: appt,
		FeeApplies:  feeApplies,
		FeeCents:    feeCents(feeApplies, e.policy),
		Warnings:    warnings,
	}, nil
}

func feeCents(applies bool, p *schedule.Policy) int {
	if !applies {
		return 0
	}
	return p.RescheduleFeeCents
}

// CancelResult is returned on a successful cancellation.
type CancelResult struct {
	Appointment *appointments.Appointment `json:"appointment"`
	// WithinPolicy reports whether the cancellation happened at least
	// CancellationPolicyHours before the scheduled time. Informational:
	// callers decide refund policy from it.
	WithinPolicy bool     `json:"within_policy"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Cancel marks an appointment cancelled. Terminal: the id can never be
// booked or rescheduled again.
func (e *Engine) Cancel(ctx context.Context, id, reason string) (*CancelResult, error) {
	start := e.now()
	defer func() { e.metrics.ObserveDuration("cancel", time.Since(start).Seconds()) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	appt, err := e.store.Get(id)
	if err != nil {
		e.metrics.ObserveOperation("cancel", "not_found")
		return nil, ErrNotFound
	}
	if appt.Status.Terminal() {
		e.metrics.ObserveOperation("cancel", "terminal")
		return nil, &PolicyViolationError{
			Rule:   "terminal-state",
			Detail: fmt.Sprintf("appointment is already %s", appt.Status),
		}
	}

	now := e.now()
	withinPolicy := appt.ScheduledAt.Sub(now).Hours() >= float64(e.policy.CancellationPolicyHours)

	appt.Status = appointments.StatusCancelled
	appt.CancelReason = reason
	appt.CancelledAt = &now
	appt.UpdatedAt = now
	e.store.Put(appt)

	var warnings []string
	warnings = e.persist(ctx, warnings)

	if e.calendar != nil && appt.CalendarEventID != "" {
		if err := e.calendar.CancelEvent(ctx, appt.CalendarEventID, reason); err != nil {
			e.logger.Error("scheduling: calendar cancel failed", "appointment_id", appt.ID, "error", err)
			warnings = append(warnings, fmt.Sprintf("calendar cancel failed: %v", err))
		}
	}

	e.metrics.ObserveOperation("cancel", "success")
	e.logger.Info("scheduling: appointment cancelled",
		"appointment_id", appt.ID,
		"within_policy", withinPolicy,
	)
	return &CancelResult{Appointment: appt, WithinPolicy: withinPolicy, Warnings: warnings}, nil
}

// Get returns a single appointment by id.
func (e *Engine) Get(id string) (*appointments.Appointment, error) {
	appt, err := e.store.Get(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return appt, nil
}

// List returns appointments intersecting [from, to), optionally filtered by
// service type.
func (e *Engine) List(from, to time.Time, serviceType string) []*appointments.Appointment {
	return e.store.Range(from, to, serviceType)
}

// Availability enumerates candidate slots over a day range, each flagged
// with whether it currently passes conflict detection.
func (e *Engine) Availability(from time.Time, days int, serviceType string, durationMinutes int, pref schedule.TimeOfDay) []schedule.TimeSlot {
	if durationMinutes <= 0 {
		durationMinutes = e.policy.DurationFor(serviceType)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	slots := e.slots.GenerateRange(from, days, serviceType, durationMinutes, pref)
	for i := range slots {
		slots[i].Available = e.conflicts.Check(slots[i], "") == nil
	}
	return slots
}

// validateBooking normalizes and validates a booking request in place.
func (e *Engine) validateBooking(req *BookingRequest) error {
	if req.CustomerName == "" {
		return &ValidationError{Field: "customer_name", Detail: "required"}
	}
	if req.ServiceType == "" {
		return &ValidationError{Field: "service_type", Detail: "required"}
	}
	if req.Start.IsZero() {
		return &ValidationError{Field: "start", Detail: "required"}
	}
	if req.DurationMinutes < 0 {
		return &ValidationError{Field: "duration_minutes", Detail: "must be positive"}
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = e.policy.DurationFor(req.ServiceType)
	}
	if req.Location == "" {
		req.Location = appointments.LocationStudio
	}
	if !req.Location.Valid() {
		return &ValidationError{Field: "location", Detail: fmt.Sprintf("unknown location type %q", req.Location)}
	}
	if req.Start.Before(e.now()) {
		return &PolicyViolationError{Rule: "past-booking", Detail: "appointment start is in the past"}
	}
	return nil
}

// checkSlot applies business-hours legality and conflict detection, mapping
// failures onto the error taxonomy. A conflicted slot yields alternatives.
func (e *Engine) checkSlot(slot schedule.TimeSlot, excludeID string, maxAlternatives int) error {
	if !e.slotWithinHours(slot) {
		e.metrics.ObserveConflict("business_hours")
		return &SlotUnavailableError{
			Reason:       "outside business hours",
			Alternatives: e.alternatives(slot, excludeID, maxAlternatives),
		}
	}
	switch err := e.conflicts.Check(slot, excludeID); err {
	case nil:
		return nil
	case schedule.ErrBeyondHorizon:
		e.metrics.ObserveConflict("horizon")
		return &PolicyViolationError{
			Rule:   "advance-booking",
			Detail: fmt.Sprintf("start exceeds the %d-day booking horizon", e.policy.AdvanceBookingDays),
		}
	case schedule.ErrConcurrencyLimit:
		e.metrics.ObserveConflict("concurrency")
		return &SlotUnavailableError{
			Reason:       "concurrent appointment limit reached",
			Alternatives: e.alternatives(slot, excludeID, maxAlternatives),
		}
	default:
		e.metrics.ObserveConflict("overlap")
		return &SlotUnavailableError{
			Reason:       "slot conflicts with an existing appointment",
			Alternatives: e.alternatives(slot, excludeID, maxAlternatives),
		}
	}
}

// slotWithinHours reports whether the slot lies inside the day's window and
// clear of breaks.
func (e *Engine) slotWithinHours(slot schedule.TimeSlot) bool {
	open, closeAt, breaks, ok := e.cal.DayWindow(slot.Start)
	if !ok {
		return false
	}
	if slot.Start.Before(open) || slot.End.After(closeAt) {
		return false
	}
	iv := schedule.Interval{Start: slot.Start, End: slot.End}
	for _, br := range breaks {
		if iv.Overlaps(br) {
			return false
		}
	}
	return true
}

// alternatives searches a ±7-day window around the rejected slot for
// conflict-free candidates, earliest first. Every returned slot passes the
// conflict detector independently.
func (e *Engine) alternatives(slot schedule.TimeSlot, excludeID string, limit int) []schedule.TimeSlot {
	now := e.now()
	from := slot.Start.AddDate(0, 0, -alternativeWindowDays)
	if from.Before(now) {
		from = now
	}
	// The upper bound stays anchored to the requested start: clamping the
	// lower bound to now must not push candidates past the window.
	until := slot.Start.AddDate(0, 0, alternativeWindowDays)

	var out []schedule.TimeSlot
	for date := from; !date.After(until) && len(out) < limit; date = date.AddDate(0, 0, 1) {
		for _, cand := range e.slots.GenerateDay(date, slot.ServiceType, slot.DurationMinutes, schedule.TimeOfDayAny) {
			if cand.Start.Before(now) || cand.Start.After(until) {
				continue
			}
			if e.conflicts.Check(cand, excludeID) != nil {
				continue
			}
			out = append(out, cand)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// persist saves a snapshot, converting failure into a warning. In-memory
// state stays authoritative for the rest of the process lifetime.
func (e *Engine) persist(ctx context.Context, warnings []string) []string {
	if e.persistence == nil {
		return warnings
	}
	if err := e.persistence.Save(ctx, e.store.Snapshot()); err != nil {
		e.metrics.ObserveSnapshotFailure()
		e.logger.Error("scheduling: snapshot save failed", "error", err)
		return append(warnings, fmt.Sprintf("snapshot save failed: %v", err))
	}
	return warnings
}

// Upcoming returns every active appointment. The reminder scheduler reads
// from this.
func (e *Engine) Upcoming() []*appointments.Appointment {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*appointments.Appointment
	for _, a := range e.store.All() {
		if a.Status.Active() {
			out = append(out, a)
		}
	}
	return out
}

// RecordReminderSent marks a reminder key fired for an appointment and
// persists the change, under the same serialization discipline as bookings.
func (e *Engine) RecordReminderSent(ctx context.Context, id, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	appt, err := e.store.Get(id)
	if err != nil {
		return ErrNotFound
	}
	appt.MarkReminderSent(key)
	appt.UpdatedAt = e.now()
	e.store.Put(appt)
	e.persist(ctx, nil)
	return nil
}
