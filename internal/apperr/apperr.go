// Package apperr defines the error kinds workers and handlers translate raw
// transport/database errors into at their boundary, per the propagation
// policy of the error handling design.
package apperr

import "errors"

// Sentinel kinds. Concrete errors wrap one of these with fmt.Errorf("...: %w", ErrX)
// so callers can classify with errors.Is, matching the teacher's
// ErrReminderNotFound idiom generalized across the whole repo.
var (
	// ErrNotFound marks a plan/reminder/task missing or not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a recoverable input validation failure
	// (bad HH:MM, bad IANA zone, empty plan text, too many tasks, ...).
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient marks a transport/database failure that should be retried
	// with exponential backoff.
	ErrTransient = errors.New("transient error")

	// ErrPermanent marks a transport failure that must never be retried
	// (the recipient blocked the bot).
	ErrPermanent = errors.New("permanent delivery error")

	// ErrZoneUnresolvable marks an invalid or unknown IANA zone string
	// encountered by the ticker; the affected user is skipped for the tick.
	ErrZoneUnresolvable = errors.New("zone unresolvable")
)

// Is reports whether err ultimately wraps target, a thin readability
// wrapper over errors.Is used throughout the dispatch/sender packages.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
