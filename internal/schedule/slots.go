package schedule

import "time"

// TimeOfDay filters candidate slots by when they start.
type TimeOfDay string

const (
	TimeOfDayAny       TimeOfDay = "any"
	TimeOfDayMorning   TimeOfDay = "morning"   // [06:00, 12:00)
	TimeOfDayAfternoon TimeOfDay = "afternoon" // [12:00, 17:00)
	TimeOfDayEvening   TimeOfDay = "evening"   // [17:00, 21:00)
)

// matches reports whether a slot starting at the given local hour satisfies
// the preference.
func (t TimeOfDay) matches(hour int) bool {
	switch t {
	case TimeOfDayMorning:
		return hour >= 6 && hour < 12
	case TimeOfDayAfternoon:
		return hour >= 12 && hour < 17
	case TimeOfDayEvening:
		return hour >= 17 && hour < 21
	default:
		return true
	}
}

// TimeSlot is a candidate booking interval. Slots are ephemeral: generated
// on demand, consumed immediately, never persisted.
type TimeSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Available       bool      `json:"available"`
	ServiceType     string    `json:"service_type,omitempty"`
}

// SlotGenerator enumerates candidate slots legal under business-hour rules.
// Whether a slot is free of booking conflicts is the conflict detector's
// call, not the generator's.
type SlotGenerator struct {
	cal *Calendar
}

// NewSlotGenerator creates a slot generator over the given calendar.
func NewSlotGenerator(cal *Calendar) *SlotGenerator {
	return &SlotGenerator{cal: cal}
}

// GenerateDay walks a cursor from the day's open time to its close time in
// steps of duration+buffer, emitting each candidate that fits before close,
// misses every break, and matches the time-of-day preference.
func (g *SlotGenerator) GenerateDay(date time.Time, serviceType string, durationMinutes int, pref TimeOfDay) []TimeSlot {
	if durationMinutes <= 0 {
		return nil
	}
	open, closeAt, breaks, ok := g.cal.DayWindow(date)
	if !ok {
		return nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := duration + g.cal.Policy().Buffer()

	var slots []TimeSlot
	for cursor := open; cursor.Before(closeAt); {
		end := cursor.Add(duration)
		if end.After(closeAt) {
			break
		}
		// A candidate cut by a break resumes at the break's end, so the
		// first slot after lunch starts exactly when lunch is over.
		if br, hit := firstOverlap(Interval{Start: cursor, End: end}, breaks); hit {
			cursor = br.End
			continue
		}
		if pref.matches(cursor.In(g.cal.Location()).Hour()) {
			slots = append(slots, TimeSlot{
				Start:           cursor,
				End:             end,
				DurationMinutes: durationMinutes,
				Available:       true,
				ServiceType:     serviceType,
			})
		}
		cursor = cursor.Add(step)
	}
	return slots
}

// GenerateRange runs GenerateDay for each date in [from, from+days) and
// concatenates the results in date order. Distinct days cannot produce
// identical instants, so no dedup is needed.
func (g *SlotGenerator) GenerateRange(from time.Time, days int, serviceType string, durationMinutes int, pref TimeOfDay) []TimeSlot {
	var slots []TimeSlot
	for i := 0; i < days; i++ {
		slots = append(slots, g.GenerateDay(from.AddDate(0, 0, i), serviceType, durationMinutes, pref)...)
	}
	return slots
}

func firstOverlap(iv Interval, breaks []Interval) (Interval, bool) {
	for _, br := range breaks {
		if iv.Overlaps(br) {
			return br, true
		}
	}
	return Interval{}, false
}
