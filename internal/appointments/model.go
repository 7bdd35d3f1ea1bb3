// Package appointments owns the appointment aggregate and its authoritative
// in-memory store. Cancellation is a status transition, never a delete, so the
// audit history of a booking survives for the life of the snapshot.
package appointments

import (
	"time"
)

// Status tracks the lifecycle of an appointment.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Active reports whether the appointment still occupies its time slot.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed || s == StatusRescheduled
}

// LocationType specifies where the appointment takes place.
type LocationType string

const (
	LocationStudio LocationType = "studio"
	LocationClient LocationType = "client_location"
	LocationOnline LocationType = "online"
)

// Valid reports whether l is a known location type.
func (l LocationType) Valid() bool {
	switch l {
	case LocationStudio, LocationClient, LocationOnline:
		return true
	}
	return false
}

// RescheduleEntry records one reschedule of an appointment. History is
// append-only; earlier entries are never rewritten.
type RescheduleEntry struct {
	OriginalStart time.Time `json:"original_start"`
	NewStart      time.Time `json:"new_start"`
	Reason        string    `json:"reason,omitempty"`
	Initiator     string    `json:"initiator,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Appointment is the aggregate root for a booked engagement.
type Appointment struct {
	ID              string       `json:"id"`
	CustomerName    string       `json:"customer_name"`
	CustomerEmail   string       `json:"customer_email,omitempty"`
	CustomerPhone   string       `json:"customer_phone,omitempty"`
	ServiceType     string       `json:"service_type"`
	ScheduledAt     time.Time    `json:"scheduled_at"`
	DurationMinutes int          `json:"duration_minutes"`
	Location        LocationType `json:"location"`
	Status          Status       `json:"status"`

	// RemindersSent holds fired reminder keys like "email:24h" so a
	// reminder is dispatched at most once per channel and lead time.
	RemindersSent map[string]bool `json:"reminders_sent,omitempty"`

	RescheduleHistory []RescheduleEntry `json:"reschedule_history,omitempty"`

	// Handles into external collaborators, when present.
	CalendarEventID string `json:"calendar_event_id,omitempty"`
	MeetingLink     string `json:"meeting_link,omitempty"`

	// RecurringScheduleID links appointments generated from a series.
	RecurringScheduleID string `json:"recurring_schedule_id,omitempty"`

	CancelReason string     `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// End returns the exclusive end instant of the appointment interval.
func (a *Appointment) End() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the half-open interval [start, end) intersects
// the appointment's own [ScheduledAt, End()).
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.End()) && a.ScheduledAt.Before(end)
}

// MarkReminderSent records a fired reminder key, allocating the set lazily.
func (a *Appointment) MarkReminderSent(key string) {
	if a.RemindersSent == nil {
		a.RemindersSent = make(map[string]bool)
	}
	a.RemindersSent[key] = true
}

// Clone returns a deep copy of the appointment.
func (a *Appointment) Clone() *Appointment {
	cp := *a
	if a.RemindersSent != nil {
		cp.RemindersSent = make(map[string]bool, len(a.RemindersSent))
		for k, v := range a.RemindersSent {
			cp.RemindersSent[k] = v
		}
	}
	if a.RescheduleHistory != nil {
		cp.RescheduleHistory = append([]RescheduleEntry(nil), a.RescheduleHistory...)
	}
	if a.CancelledAt != nil {
		t := *a.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}

// RecurrencePattern selects how a recurring schedule advances its cursor.
type RecurrencePattern string

const (
	PatternDaily   RecurrencePattern = "daily"
	PatternWeekly  RecurrencePattern = "weekly"
	PatternMonthly RecurrencePattern = "monthly"
)

// Valid reports whether p is a known recurrence pattern.
func (p RecurrencePattern) Valid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	}
	return false
}

// RecurringSchedule is a generative template that produced a bounded series
// of appointments at creation time. It is immutable afterwards except for
// exception additions; it does not regenerate when policy changes.
type RecurringSchedule struct {
	ID                  string            `json:"id"`
	CustomerName        string            `json:"customer_name"`
	ServiceType         string            `json:"service_type"`
	Pattern             RecurrencePattern `json:"pattern"`
	Frequency           int               `json:"frequency"`
	DaysOfWeek          []time.Weekday    `json:"days_of_week,omitempty"`
	StartAt             time.Time         `json:"start_at"`
	DurationMinutes     int               `json:"duration_minutes"`
	Location            LocationType      `json:"location"`
	EndDate             *time.Time        `json:"end_date,omitempty"`
	EndAfterOccurrences int               `json:"end_after_occurrences,omitempty"`

	// Exceptions are skip dates in time.DateOnly form.
	Exceptions []string `json:"exceptions,omitempty"`

	// AppointmentIDs lists the generated appointments in date order.
	AppointmentIDs []string `json:"appointment_ids"`

	CreatedAt time.Time `json:"created_at"`
}

// IsException reports whether the given date was explicitly skipped.
func (r *RecurringSchedule) IsException(date time.Time) bool {
	day := date.Format(time.DateOnly)
	for _, e := range r.Exceptions {
		if e == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the recurring schedule.
func (r *RecurringSchedule) Clone() *RecurringSchedule {
	cp := *r
	if r.DaysOfWeek != nil {
		cp.DaysOfWeek = append([]time.Weekday(nil), r.DaysOfWeek...)
	}
	if r.Exceptions != nil {
		cp.Exceptions = append([]string(nil), r.Exceptions...)
	}
	if r.AppointmentIDs != nil {
		cp.AppointmentIDs = append([]string(nil), r.AppointmentIDs...)
	}
	if r.EndDate != nil {
		t := *r.EndDate
		cp.EndDate = &t
	}
	return &cp
}

// Snapshot is the persisted shape of the store, exchanged with a
// persistence backend on save/load.
type Snapshot struct {
	Appointments map[string]*Appointment       `json:"appointments"`
	Recurring    map[string]*RecurringSchedule `json:"recurring_schedules"`
}
