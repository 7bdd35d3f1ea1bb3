// Package schedule holds the business-hours rules of the studio: the
// scheduling policy, the business calendar, candidate slot generation, and
// conflict detection against existing appointments.
package schedule

import (
	"fmt"
	"time"
)

// Break is a within-day closed interval, e.g. lunch.
type Break struct {
	Start string `json:"start"` // "12:00" in 24-hour format
	End   string `json:"end"`   // "13:00"
	Label string `json:"label,omitempty"`
}

// DayHours represents the opening hours for a single day.
// Nil means the studio is closed that day.
type DayHours struct {
	Open   string  `json:"open"`  // "09:00" in 24-hour format
	Close  string  `json:"close"` // "18:00"
	Breaks []Break `json:"breaks,omitempty"`
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// ForWeekday returns the hours configured for the given weekday, or nil when closed.
func (b *BusinessHours) ForWeekday(d time.Weekday) *DayHours {
	switch d {
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	case time.Sunday:
		return b.Sunday
	}
	return nil
}

// Policy carries every scheduling rule the engine enforces. Build one, call
// Validate, and treat it as read-only afterwards.
type Policy struct {
	Timezone string        `json:"timezone"` // e.g. "America/New_York"
	Hours    BusinessHours `json:"business_hours"`

	// ServiceDurations maps a service type to its session length in minutes.
	// Services not listed fall back to DefaultDurationMinutes.
	ServiceDurations       map[string]int `json:"service_durations,omitempty"`
	DefaultDurationMinutes int            `json:"default_duration_minutes"`

	// BufferMinutes is the mandatory idle gap after every appointment.
	BufferMinutes int `json:"buffer_minutes"`

	// AdvanceBookingDays is the furthest horizon a booking may target.
	AdvanceBookingDays int `json:"advance_booking_days"`

	CancellationPolicyHours  int `json:"cancellation_policy_hours"`
	RescheduleFeeWaiverHours int `json:"reschedule_fee_waiver_hours"`
	RescheduleFeeCents       int `json:"reschedule_fee_cents"`

	// MaxConcurrent caps how many appointments may overlap one instant.
	MaxConcurrent int `json:"max_concurrent_appointments"`

	EmailReminderLeadHours []int `json:"email_reminder_lead_hours,omitempty"`
	SMSReminderLeadHours   []int `json:"sms_reminder_lead_hours,omitempty"`

	// BlockedDates and HolidayDates close the studio regardless of weekday
	// config. Entries are time.DateOnly strings.
	BlockedDates []string `json:"blocked_dates,omitempty"`
	HolidayDates []string `json:"holiday_dates,omitempty"`
}

// DurationFor returns the session length for a service type.
func (p *Policy) DurationFor(serviceType string) int {
	if d, ok := p.ServiceDurations[serviceType]; ok && d > 0 {
		return d
	}
	return p.DefaultDurationMinutes
}

// Buffer returns BufferMinutes as a duration.
func (p *Policy) Buffer() time.Duration {
	return time.Duration(p.BufferMinutes) * time.Minute
}

// Validate checks internal consistency: open before close, breaks inside the
// day window and non-overlapping, positive durations, parsable dates.
func (p *Policy) Validate() error {
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("schedule: invalid timezone %q: %w", p.Timezone, err)
		}
	}
	if p.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("schedule: default duration must be positive, got %d", p.DefaultDurationMinutes)
	}
	for svc, d := range p.ServiceDurations {
		if d <= 0 {
			return fmt.Errorf("schedule: duration for service %q must be positive, got %d", svc, d)
		}
	}
	if p.BufferMinutes < 0 {
		return fmt.Errorf("schedule: buffer minutes must not be negative, got %d", p.BufferMinutes)
	}
	if p.AdvanceBookingDays <= 0 {
		return fmt.Errorf("schedule: advance booking days must be positive, got %d", p.AdvanceBookingDays)
	}
	if p.MaxConcurrent <= 0 {
		return fmt.Errorf("schedule: max concurrent appointments must be positive, got %d", p.MaxConcurrent)
	}
	for _, day := range []struct {
		name  string
		hours *DayHours
	}{
		{"monday", p.Hours.Monday},
		{"tuesday", p.Hours.Tuesday},
		{"wednesday", p.Hours.Wednesday},
		{"thursday", p.Hours.Thursday},
		{"friday", p.Hours.Friday},
		{"saturday", p.Hours.Saturday},
		{"sunday", p.Hours.Sunday},
	} {
		if day.hours == nil {
			continue
		}
		if err := validateDay(day.hours); err != nil {
			return fmt.Errorf("schedule: %s: %w", day.name, err)
		}
	}
	for _, d := range append(append([]string{}, p.BlockedDates...), p.HolidayDates...) {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return fmt.Errorf("schedule: invalid blocked date %q: %w", d, err)
		}
	}
	return nil
}

func validateDay(h *DayHours) error {
	open, err := parseClock(h.Open)
	if err != nil {
		return fmt.Errorf("parse open: %w", err)
	}
	closeMin, err := parseClock(h.Close)
	if err != nil {
		return fmt.Errorf("parse close: %w", err)
	}
	if open >= closeMin {
		return fmt.Errorf("open %s must precede close %s", h.Open, h.Close)
	}
	prevEnd := open
	for i, br := range h.Breaks {
		bs, err := parseClock(br.Start)
		if err != nil {
			return fmt.Errorf("break %d: parse start: %w", i, err)
		}
		be, err := parseClock(br.End)
		if err != nil {
			return fmt.Errorf("break %d: parse end: %w", i, err)
		}
		if bs >= be {
			return fmt.Errorf("break %d: start %s must precede end %s", i, br.Start, br.End)
		}
		if bs < open || be > closeMin {
			return fmt.Errorf("break %d: must lie within business hours", i)
		}
		if bs < prevEnd && i > 0 {
			return fmt.Errorf("break %d: overlaps previous break", i)
		}
		prevEnd = be
	}
	return nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("empty clock")
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DefaultPolicy returns a studio policy with sensible defaults: weekdays
// 09:00-18:00 with a lunch break, Saturday mornings, closed Sunday.
func DefaultPolicy() *Policy {
	// Each weekday gets its own DayHours value, so adjusting one day's
	// hours never bleeds into the others.
	weekday := func() *DayHours {
		return &DayHours{
			Open:  "09:00",
			Close: "18:00",
			Breaks: []Break{
				{Start: "12:00", End: "13:00", Label: "lunch"},
			},
		}
	}
	return &Policy{
		Timezone: "America/New_York",
		Hours: BusinessHours{
			Monday:    weekday(),
			Tuesday:   weekday(),
			Wednesday: weekday(),
			Thursday:  weekday(),
			Friday:    weekday(),
			Saturday:  &DayHours{Open: "10:00", Close: "14:00"},
		},
		ServiceDurations: map[string]int{
			"teaching":     60,
			"consultation": 30,
			"portrait":     90,
		},
		DefaultDurationMinutes:   60,
		BufferMinutes:            15,
		AdvanceBookingDays:       60,
		CancellationPolicyHours:  24,
		RescheduleFeeWaiverHours: 24,
		RescheduleFeeCents:       2500,
		MaxConcurrent:            1,
		EmailReminderLeadHours:   []int{48, 24},
		SMSReminderLeadHours:     []int{2},
	}
}
