package scheduling

import (
	"errors"
	"fmt"

	"github.com/hazelgrove/studio-scheduler/internal/schedule"
)

// ErrNotFound is returned when an appointment id is unknown.
var ErrNotFound = errors.New("scheduling: appointment not found")

// SlotUnavailableError reports a conflict or business-hours rejection and
// always carries alternative slots the caller may offer instead.
type SlotUnavailableError struct {
	Reason       string              `json:"reason"`
	Alternatives []schedule.TimeSlot `json:"alternatives"`
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("scheduling: slot unavailable: %s (%d alternatives)", e.Reason, len(e.Alternatives))
}

// PolicyViolationError reports a request that breaks a scheduling policy
// rule, e.g. booking beyond the advance horizon or touching a terminal
// appointment.
type PolicyViolationError struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("scheduling: policy violation (%s): %s", e.Rule, e.Detail)
}

// ValidationError reports malformed input: non-positive duration, missing
// fields, unknown enum values.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scheduling: invalid %s: %s", e.Field, e.Detail)
}
