// Package reminders periodically scans upcoming appointments and dispatches
// email and SMS reminders at configured lead times. Idempotency rides on the
// appointment's fired-reminder keys, so a restart never double-sends.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/observability/metrics"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

// Channel names a reminder delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// dispatchWindowHours is how far below a lead time an appointment still
// qualifies for that reminder. A tick that lands at 23.6 hours out still
// fires the 24h reminder; one at 23.4 hours does not.
const dispatchWindowHours = 0.5

// Dispatcher delivers a single reminder over one channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, channel Channel, appt *appointments.Appointment, leadHours int) error
}

// Source supplies candidate appointments and records fired reminders. The
// scheduling engine implements it.
type Source interface {
	Upcoming() []*appointments.Appointment
	RecordReminderSent(ctx context.Context, id, key string) error
}

// Scheduler evaluates reminder lead times against the clock on every tick.
type Scheduler struct {
	source     Source
	dispatcher Dispatcher
	emailLeads []int
	smsLeads   []int
	metrics    *metrics.SchedulingMetrics
	logger     *logging.Logger
	now        func() time.Time
}

// NewScheduler constructs a reminder scheduler. Lead hour slices come from
// policy; an empty slice disables that channel.
func NewScheduler(source Source, dispatcher Dispatcher, emailLeads, smsLeads []int, m *metrics.SchedulingMetrics, logger *logging.Logger) *Scheduler {
	if source == nil {
		panic("reminders: source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		emailLeads: emailLeads,
		smsLeads:   smsLeads,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the scheduler's clock. Tests use this.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Key builds the idempotency key for one channel and lead time, e.g.
// "email:24h". Keys are scoped per channel so a 2h SMS and a hypothetical
// 2h email never collide.
func Key(channel Channel, leadHours int) string {
	return fmt.Sprintf("%s:%dh", channel, leadHours)
}

// Tick scans all active appointments once and dispatches every due,
// not-yet-sent reminder. Dispatch failures are logged and left unrecorded,
// so the next tick inside the window retries them. Returns the number of
// reminders successfully dispatched.
func (s *Scheduler) Tick(ctx context.Context) int {
	if s.dispatcher == nil {
		return 0
	}
	now := s.now()
	sent := 0
	for _, appt := range s.source.Upcoming() {
		hoursUntil := appt.ScheduledAt.Sub(now).Hours()
		if hoursUntil <= 0 {
			continue
		}
		if appt.CustomerEmail != "" {
			sent += s.dispatchDue(ctx, ChannelEmail, s.emailLeads, appt, hoursUntil)
		}
		if appt.CustomerPhone != "" {
			sent += s.dispatchDue(ctx, ChannelSMS, s.smsLeads, appt, hoursUntil)
		}
	}
	return sent
}

func (s *Scheduler) dispatchDue(ctx context.Context, channel Channel, leads []int, appt *appointments.Appointment, hoursUntil float64) int {
	sent := 0
	for _, lead := range leads {
		if hoursUntil > float64(lead) || hoursUntil <= float64(lead)-dispatchWindowHours {
			continue
		}
		key := Key(channel, lead)
		if appt.RemindersSent[key] {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, channel, appt, lead); err != nil {
			s.logger.Error("reminders: dispatch failed",
				"appointment_id", appt.ID,
				"channel", string(channel),
				"lead_hours", lead,
				"error", err,
			)
			continue
		}
		if err := s.source.RecordReminderSent(ctx, appt.ID, key); err != nil {
			s.logger.Error("reminders: record failed", "appointment_id", appt.ID, "key", key, "error", err)
			continue
		}
		s.metrics.ObserveReminder(string(channel))
		s.logger.Info("reminders: reminder sent",
			"appointment_id", appt.ID,
			"channel", string(channel),
			"lead_hours", lead,
		)
		sent++
	}
	return sent
}
