package booking

import "errors"

// Kind classifies a booking rejection.
type Kind int

const (
	// KindInvalid is a malformed request.
	KindInvalid Kind = iota
	// KindPolicy is a well-formed request that breaks a scheduling policy.
	KindPolicy
	// KindConflict is a request that collides with existing appointments.
	KindConflict
)

// Error is a booking rejection carrying a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidDate  = &Error{KindInvalid, "INVALID_DATE", "Invalid date, use YYYY-MM-DD"}
	ErrInvalidTime  = &Error{KindInvalid, "INVALID_TIME", "Invalid time, use HH:MM (24h)"}
	ErrPastDate     = &Error{KindPolicy, "PAST_DATE", "Appointments cannot be booked in the past"}
	ErrWeekend      = &Error{KindPolicy, "WEEKEND", "Appointments cannot be booked on weekends"}
	ErrHoliday      = &Error{KindPolicy, "HOLIDAY", "Appointments cannot be booked on public holidays"}
	ErrOutsideHours = &Error{KindPolicy, "OUTSIDE_HOURS", "Appointments must be between 07:00 and 18:00"}

	ErrSlotConflict  = &Error{KindConflict, "SLOT_CONFLICT", "The doctor already has an appointment within 30 minutes of the requested time"}
	ErrDuplicateSlot = &Error{KindConflict, "DUPLICATE_SLOT", "This time slot is already booked"}

	ErrInvalidTransition = &Error{KindConflict, "INVALID_TRANSITION", "Appointment cannot change to the requested status"}
)

// ErrLockTimeout is returned when the slot lock could not be acquired in time.
var ErrLockTimeout = errors.New("booking: timed out waiting for slot lock")
