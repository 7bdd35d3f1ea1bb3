package schedule

import (
	"errors"
	"time"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

var (
	// ErrBeyondHorizon is returned when a slot starts past the advance-booking limit
	ErrBeyondHorizon = errors.New("slot exceeds the advance booking horizon")

	// ErrSlotTaken is returned when a slot overlaps an existing appointment
	ErrSlotTaken = errors.New("slot overlaps an existing appointment")

	// ErrConcurrencyLimit is returned when the concurrent appointment cap is reached
	ErrConcurrencyLimit = errors.New("concurrent appointment limit reached")
)

// AppointmentSource yields the non-cancelled appointments intersecting a
// half-open interval, excluding one id. The appointment store satisfies it.
type AppointmentSource interface {
	Overlapping(start, end time.Time, excludeID string) []*appointments.Appointment
}

// ConflictDetector decides whether a candidate slot is free of booking
// conflicts. Business-hours legality is the slot generator's job; this only
// looks at existing appointments and policy limits.
type ConflictDetector struct {
	policy *Policy
	source AppointmentSource
	now    func() time.Time
}

// NewConflictDetector creates a detector over the given policy and source.
func NewConflictDetector(policy *Policy, source AppointmentSource) *ConflictDetector {
	return &ConflictDetector{policy: policy, source: source, now: time.Now}
}

// WithClock overrides the detector's clock. Tests use this.
func (d *ConflictDetector) WithClock(now func() time.Time) *ConflictDetector {
	d.now = now
	return d
}

// Check returns nil when the slot can be booked. excludeID names an
// appointment being rescheduled, which must not conflict with itself.
//
// The pairwise test widens every appointment by the policy buffer, so the
// mandatory idle gap holds no matter what start time the caller asks for.
// Overlap rejection never consults MaxConcurrent: an overlapping slot fails
// the pairwise rule even when the cap would permit more simultaneous
// appointments. The concurrency count below uses the plain interval, which
// is a subset of the buffered one, so it can only trip once the pairwise
// rule is relaxed to admit overlap up to the cap.
func (d *ConflictDetector) Check(slot TimeSlot, excludeID string) error {
	horizon := d.now().AddDate(0, 0, d.policy.AdvanceBookingDays)
	if slot.Start.After(horizon) {
		return ErrBeyondHorizon
	}

	buffer := d.policy.Buffer()
	if len(d.source.Overlapping(slot.Start.Add(-buffer), slot.End.Add(buffer), excludeID)) > 0 {
		return ErrSlotTaken
	}

	if len(d.source.Overlapping(slot.Start, slot.End, excludeID)) >= d.policy.MaxConcurrent {
		return ErrConcurrencyLimit
	}

	return nil
}
