package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/schedule"
)

// recurrenceEngine opens every day and extends the horizon so multi-month
// series fit inside it.
func recurrenceEngine(t *testing.T) *Engine {
	t.Helper()
	p := testPolicy()
	p.AdvanceBookingDays = 365
	p.Hours.Sunday = &schedule.DayHours{Open: "10:00", Close: "16:00"}
	p.Hours.Saturday = &schedule.DayHours{Open: "09:00", Close: "18:00"}
	cal, err := schedule.NewCalendar(p)
	require.NoError(t, err)
	e := NewEngine(appointments.NewStore(), cal, &stubBackend{}, nil, nil, nil, nil)
	return e.WithClock(testNow)
}

func weeklyRequest() RecurringRequest {
	return RecurringRequest{
		CustomerName:        "Robin",
		CustomerEmail:       "robin@example.com",
		ServiceType:         "teaching",
		Pattern:             appointments.PatternWeekly,
		Frequency:           1,
		DaysOfWeek:          []time.Weekday{time.Monday},
		StartAt:             mondayAt(10),
		EndAfterOccurrences: 4,
	}
}

func TestCreateRecurringWeekly(t *testing.T) {
	e := recurrenceEngine(t)

	result, err := e.CreateRecurring(context.Background(), weeklyRequest())
	require.NoError(t, err)
	require.Len(t, result.Appointments, 4)
	assert.Empty(t, result.Skipped)

	for i, appt := range result.Appointments {
		assert.Equal(t, mondayAt(10).AddDate(0, 0, 7*i), appt.ScheduledAt)
		assert.Equal(t, result.Schedule.ID, appt.RecurringScheduleID)
		assert.Equal(t, appointments.StatusScheduled, appt.Status)
	}
	assert.Len(t, result.Schedule.AppointmentIDs, 4)

	// The schedule itself is stored and retrievable.
	sched, err := e.GetRecurring(result.Schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.PatternWeekly, sched.Pattern)
}

func TestCreateRecurringExceptionConsumesOccurrence(t *testing.T) {
	e := recurrenceEngine(t)

	req := weeklyRequest()
	req.Exceptions = []string{mondayAt(10).AddDate(0, 0, 7).Format(time.DateOnly)}

	result, err := e.CreateRecurring(context.Background(), req)
	require.NoError(t, err)

	// 4 occurrences minus the exception: 3 booked, the skip reported.
	require.Len(t, result.Appointments, 3)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "exception date", result.Skipped[0].Reason)
	assert.Equal(t, mondayAt(10).AddDate(0, 0, 7), result.Skipped[0].Start)

	// The last booked occurrence is still within the 4-occurrence span:
	// the exception consumed its slot rather than extending the series.
	last := result.Appointments[len(result.Appointments)-1]
	assert.Equal(t, mondayAt(10).AddDate(0, 0, 21), last.ScheduledAt)
}

func TestCreateRecurringNotConflictChecked(t *testing.T) {
	e := recurrenceEngine(t)

	// Occupy the second occurrence's slot up front. Series are taken as
	// pre-negotiated, so the occurrence still materializes alongside it.
	_, err := e.Book(context.Background(), bookingAt(mondayAt(10).AddDate(0, 0, 7)))
	require.NoError(t, err)

	result, err := e.CreateRecurring(context.Background(), weeklyRequest())
	require.NoError(t, err)

	assert.Len(t, result.Appointments, 4)
	assert.Empty(t, result.Skipped)
}

func TestCreateRecurringDaily(t *testing.T) {
	e := recurrenceEngine(t)

	result, err := e.CreateRecurring(context.Background(), RecurringRequest{
		CustomerName:        "Robin",
		ServiceType:         "consultation",
		Pattern:             appointments.PatternDaily,
		Frequency:           2,
		StartAt:             mondayAt(10),
		EndAfterOccurrences: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Appointments, 3)
	assert.Equal(t, mondayAt(10), result.Appointments[0].ScheduledAt)
	assert.Equal(t, mondayAt(10).AddDate(0, 0, 2), result.Appointments[1].ScheduledAt)
	assert.Equal(t, mondayAt(10).AddDate(0, 0, 4), result.Appointments[2].ScheduledAt)
}

func TestCreateRecurringMonthlySkipsShortMonths(t *testing.T) {
	e := recurrenceEngine(t)
	// Anchor on the 31st; months without a 31st produce no occurrence.
	e.WithClock(func() time.Time { return time.Date(2026, 3, 30, 8, 0, 0, 0, time.UTC) })

	result, err := e.CreateRecurring(context.Background(), RecurringRequest{
		CustomerName:        "Robin",
		ServiceType:         "teaching",
		Pattern:             appointments.PatternMonthly,
		Frequency:           1,
		StartAt:             time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC),
		EndAfterOccurrences: 3,
	})
	require.NoError(t, err)
	require.Len(t, result.Appointments, 3)

	assert.Equal(t, time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC), result.Appointments[0].ScheduledAt)
	// April has no 31st; May does.
	assert.Equal(t, time.Date(2026, 5, 31, 10, 0, 0, 0, time.UTC), result.Appointments[1].ScheduledAt)
	assert.Equal(t, time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC), result.Appointments[2].ScheduledAt)
}

func TestCreateRecurringEndDateBound(t *testing.T) {
	e := recurrenceEngine(t)

	endDate := mondayAt(10).AddDate(0, 0, 15)
	result, err := e.CreateRecurring(context.Background(), RecurringRequest{
		CustomerName: "Robin",
		ServiceType:  "teaching",
		Pattern:      appointments.PatternWeekly,
		Frequency:    1,
		DaysOfWeek:   []time.Weekday{time.Monday},
		StartAt:      mondayAt(10),
		EndDate:      &endDate,
	})
	require.NoError(t, err)
	assert.Len(t, result.Appointments, 3, "weeks 0, 1, 2 fall before the end date")
}

func TestCreateRecurringHardCap(t *testing.T) {
	e := recurrenceEngine(t)

	// No end condition at all: the series stops at the hard cap.
	result, err := e.CreateRecurring(context.Background(), RecurringRequest{
		CustomerName: "Robin",
		ServiceType:  "teaching",
		Pattern:      appointments.PatternWeekly,
		Frequency:    1,
		DaysOfWeek:   []time.Weekday{time.Monday},
		StartAt:      mondayAt(10),
	})
	require.NoError(t, err)
	assert.Len(t, result.Appointments, 52)
	assert.Empty(t, result.Skipped)
}

func TestCreateRecurringValidation(t *testing.T) {
	e := recurrenceEngine(t)

	tests := []struct {
		name      string
		mutate    func(*RecurringRequest)
		wantField string
	}{
		{"missing name", func(r *RecurringRequest) { r.CustomerName = "" }, "customer_name"},
		{"bad pattern", func(r *RecurringRequest) { r.Pattern = "fortnightly" }, "pattern"},
		{"zero frequency", func(r *RecurringRequest) { r.Frequency = 0 }, "frequency"},
		{"weekly without days", func(r *RecurringRequest) { r.DaysOfWeek = nil }, "days_of_week"},
		{"weekday past saturday", func(r *RecurringRequest) { r.DaysOfWeek = []time.Weekday{7} }, "days_of_week"},
		{"negative weekday", func(r *RecurringRequest) { r.DaysOfWeek = []time.Weekday{-1} }, "days_of_week"},
		{"zero start", func(r *RecurringRequest) { r.StartAt = time.Time{} }, "start_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := weeklyRequest()
			tt.mutate(&req)
			_, err := e.CreateRecurring(context.Background(), req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestCreateRecurringRejectsUnmatchableWeekday(t *testing.T) {
	e := recurrenceEngine(t)

	// No end condition at all: if the bad weekday slipped through, the
	// weekly expansion would never find a matching date to stop on.
	_, err := e.CreateRecurring(context.Background(), RecurringRequest{
		CustomerName: "Robin",
		ServiceType:  "teaching",
		Pattern:      appointments.PatternWeekly,
		Frequency:    1,
		DaysOfWeek:   []time.Weekday{7},
		StartAt:      mondayAt(10),
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "days_of_week", validationErr.Field)
}

func TestCancelRecurring(t *testing.T) {
	e := recurrenceEngine(t)

	created, err := e.CreateRecurring(context.Background(), weeklyRequest())
	require.NoError(t, err)
	require.Len(t, created.Appointments, 4)

	// Cancel one occurrence individually first; series cancel must leave
	// it untouched and cancel the rest.
	first := created.Appointments[0]
	_, err = e.Cancel(context.Background(), first.ID, "one-off")
	require.NoError(t, err)

	result, err := e.CancelRecurring(context.Background(), created.Schedule.ID, "moving away")
	require.NoError(t, err)
	assert.Len(t, result.Appointments, 3)

	for _, id := range created.Schedule.AppointmentIDs {
		appt, err := e.Get(id)
		require.NoError(t, err)
		assert.Equal(t, appointments.StatusCancelled, appt.Status)
	}

	got, err := e.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "one-off", got.CancelReason)
}

func TestCancelRecurringNotFound(t *testing.T) {
	e := recurrenceEngine(t)
	_, err := e.CancelRecurring(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
