package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/reminders"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

// Dispatcher routes reminders to the email and SMS senders. Either sender
// may be nil; dispatching to a missing channel is an error so the reminder
// stays unrecorded and visible in logs.
type Dispatcher struct {
	email      EmailSender
	sms        SMSSender
	studioName string
	loc        *time.Location
	logger     *logging.Logger
}

// NewDispatcher builds a reminder dispatcher. Times in outbound messages
// are rendered in loc, the studio timezone.
func NewDispatcher(email EmailSender, sms SMSSender, studioName string, loc *time.Location, logger *logging.Logger) *Dispatcher {
	if studioName == "" {
		studioName = "the studio"
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{email: email, sms: sms, studioName: studioName, loc: loc, logger: logger}
}

// Dispatch sends one reminder over the given channel.
func (d *Dispatcher) Dispatch(ctx context.Context, channel reminders.Channel, appt *appointments.Appointment, leadHours int) error {
	switch channel {
	case reminders.ChannelEmail:
		if d.email == nil {
			return fmt.Errorf("notify: no email sender configured")
		}
		return d.email.Send(ctx, EmailMessage{
			To:      appt.CustomerEmail,
			ToName:  appt.CustomerName,
			Subject: fmt.Sprintf("Reminder: %s appointment on %s", appt.ServiceType, d.localDate(appt)),
			Body:    d.emailBody(appt, leadHours),
		})
	case reminders.ChannelSMS:
		if d.sms == nil {
			return fmt.Errorf("notify: no sms sender configured")
		}
		return d.sms.SendSMS(ctx, appt.CustomerPhone, d.smsBody(appt, leadHours))
	default:
		return fmt.Errorf("notify: unknown reminder channel %q", channel)
	}
}

func (d *Dispatcher) localDate(appt *appointments.Appointment) string {
	return appt.ScheduledAt.In(d.loc).Format("Monday, January 2")
}

func (d *Dispatcher) localTime(appt *appointments.Appointment) string {
	return appt.ScheduledAt.In(d.loc).Format("3:04 PM")
}

func (d *Dispatcher) emailBody(appt *appointments.Appointment, leadHours int) string {
	body := fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that your %s appointment at %s is coming up in about %d hours, on %s at %s.",
		appt.CustomerName, appt.ServiceType, d.studioName, leadHours, d.localDate(appt), d.localTime(appt),
	)
	if appt.MeetingLink != "" {
		body += fmt.Sprintf("\n\nJoin online: %s", appt.MeetingLink)
	}
	body += "\n\nNeed to change your appointment? Reply to this email or give us a call.\n"
	return body
}

func (d *Dispatcher) smsBody(appt *appointments.Appointment, leadHours int) string {
	msg := fmt.Sprintf("%s: your %s appointment is in about %d hours, at %s on %s.",
		d.studioName, appt.ServiceType, leadHours, d.localTime(appt), d.localDate(appt))
	if appt.MeetingLink != "" {
		msg += " Join: " + appt.MeetingLink
	}
	return msg
}
