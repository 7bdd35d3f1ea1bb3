package schedule

import (
	"fmt"
	"time"
)

// Interval is a half-open time interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Calendar resolves business hours, breaks, and blocked dates into an
// availability predicate for a given day. It is a pure function of the
// policy and the date; no side effects.
type Calendar struct {
	policy  *Policy
	loc     *time.Location
	blocked map[string]bool
}

// NewCalendar builds a calendar from a validated policy.
func NewCalendar(policy *Policy) (*Calendar, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	loc := time.UTC
	if policy.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(policy.Timezone)
		if err != nil {
			return nil, fmt.Errorf("schedule: load timezone: %w", err)
		}
	}
	blocked := make(map[string]bool, len(policy.BlockedDates)+len(policy.HolidayDates))
	for _, d := range policy.BlockedDates {
		blocked[d] = true
	}
	for _, d := range policy.HolidayDates {
		blocked[d] = true
	}
	return &Calendar{policy: policy, loc: loc, blocked: blocked}, nil
}

// Location returns the studio's timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Policy returns the policy the calendar was built from.
func (c *Calendar) Policy() *Policy {
	return c.policy
}

// IsOpen reports whether the studio is open at all on the given date.
// A date is closed when its weekday has no hours configured or when it
// appears in the blocked/holiday sets.
func (c *Calendar) IsOpen(date time.Time) bool {
	_, _, _, ok := c.DayWindow(date)
	return ok
}

// DayWindow resolves a date to its open/close instants and break intervals
// in the studio timezone. ok is false when the studio is closed that day.
func (c *Calendar) DayWindow(date time.Time) (open, closeAt time.Time, breaks []Interval, ok bool) {
	local := date.In(c.loc)
	if c.blocked[local.Format(time.DateOnly)] {
		return time.Time{}, time.Time{}, nil, false
	}
	hours := c.policy.Hours.ForWeekday(local.Weekday())
	if hours == nil {
		return time.Time{}, time.Time{}, nil, false
	}

	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	openMin, _ := parseClock(hours.Open)
	closeMin, _ := parseClock(hours.Close)
	open = midnight.Add(time.Duration(openMin) * time.Minute)
	closeAt = midnight.Add(time.Duration(closeMin) * time.Minute)

	for _, br := range hours.Breaks {
		bs, _ := parseClock(br.Start)
		be, _ := parseClock(br.End)
		breaks = append(breaks, Interval{
			Start: midnight.Add(time.Duration(bs) * time.Minute),
			End:   midnight.Add(time.Duration(be) * time.Minute),
		})
	}
	return open, closeAt, breaks, true
}
