package browser

import "errors"

var (
	// ErrTimeout is returned when a wait condition does not hold within its timeout
	ErrTimeout = errors.New("timed out waiting for condition")
	// ErrStaleReference is returned when an element is detached from the page
	ErrStaleReference = errors.New("stale element reference")
	// ErrInvalidArgument is returned for arguments rejected before any browser call
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoSuchElement is returned by drivers when a lookup matches nothing
	ErrNoSuchElement = errors.New("no such element")
	// ErrNoAlert is returned when no dialog is open
	ErrNoAlert = errors.New("no alert present")
)

// transient reports whether err may clear up on its own while polling
func transient(err error) bool {
	return errors.Is(err, ErrStaleReference) || errors.Is(err, ErrNoSuchElement)
}
