package scheduling

import (
	"context"
	"time"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

// PersistenceBackend stores and reloads the appointment snapshot. The engine
// saves after every mutating operation and loads once at startup; the
// in-memory store stays authoritative for a live process either way.
type PersistenceBackend interface {
	Save(ctx context.Context, snap appointments.Snapshot) error
	Load(ctx context.Context) (appointments.Snapshot, error)
}

// CalendarSync mirrors appointments into an external calendar provider.
// Failures are logged and surfaced as warnings, never booking failures.
type CalendarSync interface {
	CreateEvent(ctx context.Context, appt *appointments.Appointment, notes string) (eventID string, err error)
	UpdateEvent(ctx context.Context, eventID string, start, end time.Time) error
	CancelEvent(ctx context.Context, eventID, reason string) error
}

// MeetingLinkProvider generates a join link for online appointments.
type MeetingLinkProvider interface {
	GenerateLink(ctx context.Context, appointmentID string) (string, error)
}
