package berth

import "errors"

var (
	// ErrVersionNotFound is returned when a version id does not exist in the store.
	ErrVersionNotFound = errors.New("version not found")

	// ErrBookingNotFound is returned when an edit targets a booking id that is
	// not part of the working set.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrEmptyBerth is returned when a berth reassignment label normalizes to nothing.
	ErrEmptyBerth = errors.New("berth label is empty")
)
