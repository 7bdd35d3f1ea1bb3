package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

// maxSeriesOccurrences hard-caps how many appointments one recurring
// schedule can materialize, regardless of the requested end condition.
const maxSeriesOccurrences = 52

// RecurringRequest describes a recurring series to expand into concrete
// appointments. Exactly one of EndDate or EndAfterOccurrences should bound
// the series; if both are set the earlier bound wins, and if neither is set
// the hard cap applies.
type RecurringRequest struct {
	CustomerName        string                         `json:"customer_name"`
	CustomerEmail       string                         `json:"customer_email,omitempty"`
	CustomerPhone       string                         `json:"customer_phone,omitempty"`
	ServiceType         string                         `json:"service_type"`
	Location            appointments.LocationType      `json:"location"`
	Pattern             appointments.RecurrencePattern `json:"pattern"`
	Frequency           int                            `json:"frequency"`
	DaysOfWeek          []time.Weekday                 `json:"days_of_week,omitempty"`
	StartAt             time.Time                      `json:"start_at"`
	DurationMinutes     int                            `json:"duration_minutes,omitempty"`
	EndDate             *time.Time                     `json:"end_date,omitempty"`
	EndAfterOccurrences int                            `json:"end_after_occurrences,omitempty"`
	// Exceptions are dates (in the studio timezone, formatted 2006-01-02)
	// whose occurrences are skipped. A skipped occurrence still counts
	// toward EndAfterOccurrences.
	Exceptions []string `json:"exceptions,omitempty"`
}

// SkippedOccurrence records an occurrence the expansion could not book.
type SkippedOccurrence struct {
	Start  time.Time `json:"start"`
	Reason string    `json:"reason"`
}

// RecurringResult reports the outcome of a series expansion.
type RecurringResult struct {
	Schedule     *appointments.RecurringSchedule `json:"schedule"`
	Appointments []*appointments.Appointment     `json:"appointments"`
	Skipped      []SkippedOccurrence             `json:"skipped,omitempty"`
	Warnings     []string                        `json:"warnings,omitempty"`
}

// CreateRecurring expands a recurrence rule into concrete appointments in a
// single critical section. Series are treated as pre-negotiated: occurrences
// are not conflict-checked against the wider calendar, so a host wanting
// checked recurrence should run each date through Book instead. Occurrences
// on exception dates are skipped and reported.
func (e *Engine) CreateRecurring(ctx context.Context, req RecurringRequest) (*RecurringResult, error) {
	start := e.now()
	defer func() { e.metrics.ObserveDuration("recurring", time.Since(start).Seconds()) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateRecurring(&req); err != nil {
		e.metrics.ObserveOperation("recurring", "validation_error")
		return nil, err
	}

	sched := &appointments.RecurringSchedule{
		ID:                  uuid.NewString(),
		CustomerName:        req.CustomerName,
		ServiceType:         req.ServiceType,
		Pattern:             req.Pattern,
		Frequency:           req.Frequency,
		DaysOfWeek:          req.DaysOfWeek,
		StartAt:             req.StartAt,
		DurationMinutes:     req.DurationMinutes,
		Location:            req.Location,
		EndDate:             req.EndDate,
		EndAfterOccurrences: req.EndAfterOccurrences,
		Exceptions:          req.Exceptions,
		CreatedAt:           e.now(),
	}

	result := &RecurringResult{Schedule: sched}
	now := e.now()

	for _, occ := range e.expandOccurrences(sched) {
		if sched.IsException(occ.In(e.cal.Location())) {
			result.Skipped = append(result.Skipped, SkippedOccurrence{Start: occ, Reason: "exception date"})
			continue
		}
		appt := &appointments.Appointment{
			ID:                  uuid.NewString(),
			CustomerName:        req.CustomerName,
			CustomerEmail:       req.CustomerEmail,
			CustomerPhone:       req.CustomerPhone,
			ServiceType:         req.ServiceType,
			ScheduledAt:         occ,
			DurationMinutes:     req.DurationMinutes,
			Location:            req.Location,
			Status:              appointments.StatusScheduled,
			RecurringScheduleID: sched.ID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		e.store.Put(appt)
		sched.AppointmentIDs = append(sched.AppointmentIDs, appt.ID)
		result.Appointments = append(result.Appointments, appt)
	}

	e.store.PutRecurring(sched)
	result.Warnings = e.persist(ctx, result.Warnings)

	e.metrics.ObserveOperation("recurring", "success")
	e.logger.Info("scheduling: recurring series created",
		"schedule_id", sched.ID,
		"pattern", string(sched.Pattern),
		"booked", len(result.Appointments),
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// GetRecurring returns a recurring schedule by id.
func (e *Engine) GetRecurring(id string) (*appointments.RecurringSchedule, error) {
	sched, err := e.store.GetRecurring(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return sched, nil
}

// CancelRecurring cancels a recurring schedule's remaining future
// appointments in one critical section. Past and already-terminal
// appointments are left untouched.
func (e *Engine) CancelRecurring(ctx context.Context, id, reason string) (*RecurringResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sched, err := e.store.GetRecurring(id)
	if err != nil {
		return nil, ErrNotFound
	}

	now := e.now()
	result := &RecurringResult{Schedule: sched}
	for _, apptID := range sched.AppointmentIDs {
		appt, err := e.store.Get(apptID)
		if err != nil {
			continue
		}
		if appt.Status.Terminal() || appt.ScheduledAt.Before(now) {
			continue
		}
		appt.Status = appointments.StatusCancelled
		appt.CancelReason = reason
		appt.CancelledAt = &now
		appt.UpdatedAt = now
		e.store.Put(appt)
		result.Appointments = append(result.Appointments, appt)
	}
	result.Warnings = e.persist(ctx, result.Warnings)

	e.logger.Info("scheduling: recurring series cancelled",
		"schedule_id", sched.ID,
		"cancelled", len(result.Appointments),
	)
	return result, nil
}

func (e *Engine) validateRecurring(req *RecurringRequest) error {
	if req.CustomerName == "" {
		return &ValidationError{Field: "customer_name", Detail: "required"}
	}
	if req.ServiceType == "" {
		return &ValidationError{Field: "service_type", Detail: "required"}
	}
	if !req.Pattern.Valid() {
		return &ValidationError{Field: "pattern", Detail: fmt.Sprintf("unknown pattern %q", req.Pattern)}
	}
	if req.Frequency <= 0 {
		return &ValidationError{Field: "frequency", Detail: "must be positive"}
	}
	if req.StartAt.IsZero() {
		return &ValidationError{Field: "start_at", Detail: "required"}
	}
	if req.Pattern == appointments.PatternWeekly && len(req.DaysOfWeek) == 0 {
		return &ValidationError{Field: "days_of_week", Detail: "required for weekly pattern"}
	}
	for _, d := range req.DaysOfWeek {
		// An out-of-range weekday can never match a real date, which would
		// leave the weekly expansion walking forever.
		if d < time.Sunday || d > time.Saturday {
			return &ValidationError{Field: "days_of_week", Detail: fmt.Sprintf("invalid weekday %d", d)}
		}
	}
	if req.EndAfterOccurrences < 0 {
		return &ValidationError{Field: "end_after_occurrences", Detail: "must be positive"}
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
	return nil
}

// expandOccurrences materializes the candidate start instants for a series,
// bounded by end date, occurrence count, and the hard cap. Exception dates
// are NOT filtered here: an exception consumes an occurrence slot without
// producing an appointment.
func (e *Engine) expandOccurrences(s *appointments.RecurringSchedule) []time.Time {
	limit := maxSeriesOccurrences
	if s.EndAfterOccurrences > 0 && s.EndAfterOccurrences < limit {
		limit = s.EndAfterOccurrences
	}

	var out []time.Time
	switch s.Pattern {
	case appointments.PatternDaily:
		for cur := s.StartAt; len(out) < limit; cur = cur.AddDate(0, 0, s.Frequency) {
			if s.EndDate != nil && cur.After(*s.EndDate) {
				break
			}
			out = append(out, cur)
		}

	case appointments.PatternWeekly:
		wanted := make(map[time.Weekday]bool, len(s.DaysOfWeek))
		for _, d := range s.DaysOfWeek {
			wanted[d] = true
		}
		loc := e.cal.Location()
		// Walk frequency-week blocks day by day, keeping the wanted
		// weekdays within each block's first week. Every block with a
		// valid wanted weekday yields at least one occurrence, so the
		// block bound can never cut a series short of its limit.
		for blockStart, blocks := s.StartAt, 0; len(out) < limit && blocks < maxSeriesOccurrences; blockStart, blocks = blockStart.AddDate(0, 0, 7*s.Frequency), blocks+1 {
			for day := 0; day < 7 && len(out) < limit; day++ {
				cur := blockStart.AddDate(0, 0, day)
				if cur.Before(s.StartAt) {
					continue
				}
				if s.EndDate != nil && cur.After(*s.EndDate) {
					return out
				}
				if wanted[cur.In(loc).Weekday()] {
					out = append(out, cur)
				}
			}
			if s.EndDate != nil && blockStart.AddDate(0, 0, 7*s.Frequency).After(*s.EndDate) && len(out) > 0 {
				// Next block starts past the end date; the inner loop
				// above already returned if we crossed it mid-block.
				break
			}
		}

	case appointments.PatternMonthly:
		loc := e.cal.Location()
		wantDay := s.StartAt.In(loc).Day()
		for i := 0; len(out) < limit; i += s.Frequency {
			cur := s.StartAt.AddDate(0, i, 0)
			if s.EndDate != nil && cur.After(*s.EndDate) {
				break
			}
			// AddDate normalizes Jan 31 + 1 month to Mar 2/3; months
			// without the anchor day produce no occurrence.
			if cur.In(loc).Day() != wantDay {
				continue
			}
			out = append(out, cur)
		}
	}
	return out
}
