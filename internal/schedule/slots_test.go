package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerator(t *testing.T) *SlotGenerator {
	t.Helper()
	cal, err := NewCalendar(utcPolicy())
	require.NoError(t, err)
	return NewSlotGenerator(cal)
}

func TestGenerateDayResumesAfterBreak(t *testing.T) {
	g := testGenerator(t)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots := g.GenerateDay(monday, "teaching", 60, TimeOfDayAny)
	require.NotEmpty(t, slots)

	// 09:00 and 10:15 fit before lunch; 11:30-12:30 would cut into the
	// break, so the cursor resumes at 13:00 sharp.
	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start.Format("15:04"))
	}
	assert.Equal(t, []string{"09:00", "10:15", "13:00", "14:15", "15:30", "16:45"}, starts)

	for _, s := range slots {
		assert.Equal(t, 60, s.DurationMinutes)
		assert.Equal(t, s.Start.Add(time.Hour), s.End)
		assert.True(t, s.Available)
		assert.Equal(t, "teaching", s.ServiceType)
	}
}

func TestGenerateDayNeverCrossesClose(t *testing.T) {
	g := testGenerator(t)
	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	// 90-minute sessions on a 10:00-14:00 day: 10:00 and 11:45 fit,
	// 13:30 would end past close.
	slots := g.GenerateDay(saturday, "portrait", 90, TimeOfDayAny)
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00", slots[0].Start.Format("15:04"))
	assert.Equal(t, "11:45", slots[1].Start.Format("15:04"))
}

func TestGenerateDayTimeOfDayPreference(t *testing.T) {
	g := testGenerator(t)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	morning := g.GenerateDay(monday, "teaching", 60, TimeOfDayMorning)
	require.Len(t, morning, 2)
	assert.Equal(t, "09:00", morning[0].Start.Format("15:04"))
	assert.Equal(t, "10:15", morning[1].Start.Format("15:04"))

	afternoon := g.GenerateDay(monday, "teaching", 60, TimeOfDayAfternoon)
	require.Len(t, afternoon, 4)
	assert.Equal(t, "13:00", afternoon[0].Start.Format("15:04"))

	assert.Empty(t, g.GenerateDay(monday, "teaching", 60, TimeOfDayEvening))
}

func TestGenerateDayClosedDay(t *testing.T) {
	g := testGenerator(t)
	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, g.GenerateDay(sunday, "teaching", 60, TimeOfDayAny))
}

func TestGenerateDayZeroDuration(t *testing.T) {
	g := testGenerator(t)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, g.GenerateDay(monday, "teaching", 0, TimeOfDayAny))
}

func TestGenerateRange(t *testing.T) {
	g := testGenerator(t)
	// Sunday through Tuesday: Sunday contributes nothing.
	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	slots := g.GenerateRange(sunday, 3, "consultation", 30, TimeOfDayAny)
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Monday, slots[0].Start.Weekday())

	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start), "slots must be chronological")
	}
}
