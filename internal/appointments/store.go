package appointments

import (
	"sort"
	"sync"
	"time"
)

// Store is the authoritative in-memory set of appointments and recurring
// schedules. All access is mutex-guarded; callers receive copies, so a held
// reference never observes later mutations.
type Store struct {
	mu           sync.RWMutex
	appointments map[string]*Appointment
	recurring    map[string]*RecurringSchedule
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		appointments: make(map[string]*Appointment),
		recurring:    make(map[string]*RecurringSchedule),
	}
}

// Put inserts or replaces an appointment.
func (s *Store) Put(a *Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = a.Clone()
}

// Get retrieves an appointment by id.
func (s *Store) Get(id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

// Range returns appointments whose interval intersects [start, end),
// optionally filtered by service type, ordered by start time.
func (s *Store) Range(start, end time.Time, serviceType string) []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Appointment
	for _, a := range s.appointments {
		if !a.Overlaps(start, end) {
			continue
		}
		if serviceType != "" && a.ServiceType != serviceType {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// Overlapping returns non-cancelled appointments intersecting [start, end),
// excluding the given id. This is the view the conflict detector works from.
func (s *Store) Overlapping(start, end time.Time, excludeID string) []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Appointment
	for _, a := range s.appointments {
		if a.ID == excludeID || a.Status == StatusCancelled {
			continue
		}
		if !a.Overlaps(start, end) {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// All returns every appointment, ordered by start time.
func (s *Store) All() []*Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

// PutRecurring inserts or replaces a recurring schedule.
func (s *Store) PutRecurring(r *RecurringSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring[r.ID] = r.Clone()
}

// GetRecurring retrieves a recurring schedule by id.
func (s *Store) GetRecurring(id string) (*RecurringSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recurring[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return r.Clone(), nil
}

// AllRecurring returns every recurring schedule, ordered by creation time.
func (s *Store) AllRecurring() []*RecurringSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*RecurringSchedule, 0, len(s.recurring))
	for _, r := range s.recurring {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Snapshot returns a deep copy of the store contents for persistence.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Appointments: make(map[string]*Appointment, len(s.appointments)),
		Recurring:    make(map[string]*RecurringSchedule, len(s.recurring)),
	}
	for id, a := range s.appointments {
		snap.Appointments[id] = a.Clone()
	}
	for id, r := range s.recurring {
		snap.Recurring[id] = r.Clone()
	}
	return snap
}

// Restore replaces the store contents with a previously saved snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = make(map[string]*Appointment, len(snap.Appointments))
	s.recurring = make(map[string]*RecurringSchedule, len(snap.Recurring))
	for id, a := range snap.Appointments {
		s.appointments[id] = a.Clone()
	}
	for id, r := range snap.Recurring {
		s.recurring[id] = r.Clone()
	}
}

// Len returns the number of stored appointments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.appointments)
}
