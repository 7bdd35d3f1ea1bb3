package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
}

func seedAppointment(t *testing.T, store *appointments.Store, id string, start time.Time, minutes int) {
	t.Helper()
	store.Put(&appointments.Appointment{
		ID:              id,
		CustomerName:    "Robin",
		ServiceType:     "teaching",
		ScheduledAt:     start,
		DurationMinutes: minutes,
		Status:          appointments.StatusScheduled,
	})
}

func slotAt(start time.Time, minutes int) TimeSlot {
	return TimeSlot{
		Start:           start,
		End:             start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
	}
}

func TestCheckBeyondHorizon(t *testing.T) {
	store := appointments.NewStore()
	d := NewConflictDetector(utcPolicy(), store).WithClock(fixedNow)

	past := fixedNow().AddDate(0, 0, 61)
	assert.ErrorIs(t, d.Check(slotAt(past, 60), ""), ErrBeyondHorizon)

	within := fixedNow().AddDate(0, 0, 59)
	assert.NoError(t, d.Check(slotAt(within, 60), ""))
}

func TestCheckOverlapRejected(t *testing.T) {
	store := appointments.NewStore()
	d := NewConflictDetector(utcPolicy(), store).WithClock(fixedNow)

	existing := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	seedAppointment(t, store, "a1", existing, 60)

	assert.ErrorIs(t, d.Check(slotAt(existing.Add(30*time.Minute), 60), ""), ErrSlotTaken)
	assert.ErrorIs(t, d.Check(slotAt(existing, 60), ""), ErrSlotTaken)
}

func TestCheckOverlapRejectedRegardlessOfConcurrencyCap(t *testing.T) {
	store := appointments.NewStore()
	p := utcPolicy()
	p.MaxConcurrent = 3
	d := NewConflictDetector(p, store).WithClock(fixedNow)

	// One confirmed 14:00-15:00 appointment; the cap of 3 is nowhere near
	// reached, but a 14:00 booking must still fail the pairwise rule.
	existing := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	seedAppointment(t, store, "a1", existing, 60)

	assert.ErrorIs(t, d.Check(slotAt(existing, 60), ""), ErrSlotTaken)
}

func TestCheckBufferEnforcedOnBothSides(t *testing.T) {
	store := appointments.NewStore()
	d := NewConflictDetector(utcPolicy(), store).WithClock(fixedNow)

	existing := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	seedAppointment(t, store, "a1", existing, 60) // 10:00-11:00, buffer 15m

	// Back to back with no gap: rejected.
	assert.ErrorIs(t, d.Check(slotAt(existing.Add(time.Hour), 60), ""), ErrSlotTaken)
	// Ending flush against the start: rejected.
	assert.ErrorIs(t, d.Check(slotAt(existing.Add(-time.Hour), 60), ""), ErrSlotTaken)
	// A full buffer after the end: allowed.
	assert.NoError(t, d.Check(slotAt(existing.Add(75*time.Minute), 60), ""))
	// A full buffer before the start: allowed.
	assert.NoError(t, d.Check(slotAt(existing.Add(-75*time.Minute), 60), ""))
}

func TestCheckIgnoresCancelled(t *testing.T) {
	store := appointments.NewStore()
	d := NewConflictDetector(utcPolicy(), store).WithClock(fixedNow)

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store.Put(&appointments.Appointment{
		ID:              "gone",
		CustomerName:    "Robin",
		ServiceType:     "teaching",
		ScheduledAt:     start,
		DurationMinutes: 60,
		Status:          appointments.StatusCancelled,
	})

	assert.NoError(t, d.Check(slotAt(start, 60), ""))
}

func TestCheckExcludesRescheduledAppointment(t *testing.T) {
	store := appointments.NewStore()
	d := NewConflictDetector(utcPolicy(), store).WithClock(fixedNow)

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	seedAppointment(t, store, "self", start, 60)

	// Moving within its own footprint must not conflict with itself.
	require.NoError(t, d.Check(slotAt(start.Add(30*time.Minute), 60), "self"))
	assert.ErrorIs(t, d.Check(slotAt(start.Add(30*time.Minute), 60), "other"), ErrSlotTaken)
}
