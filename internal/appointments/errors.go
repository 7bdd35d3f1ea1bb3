package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment id is unknown
	ErrNotFound = errors.New("appointment not found")

	// ErrScheduleNotFound is returned when a recurring schedule id is unknown
	ErrScheduleNotFound = errors.New("recurring schedule not found")
)
