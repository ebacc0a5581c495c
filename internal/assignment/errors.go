package assignment

import "errors"

// Sentinel failure modes named by §4.7. The Dispatch Worker distinguishes
// these via errors.Is to decide whether a miss is retryable (try the next
// candidate) or terminal.
var (
	// ErrRideNotMatchable means the ride was not in MATCHING when assign
	// was attempted.
	ErrRideNotMatchable = errors.New("ride is not matchable")
	// ErrDriverUnavailable means the driver was not AVAILABLE when assign
	// was attempted.
	ErrDriverUnavailable = errors.New("driver is not available")
	// ErrConcurrentlyAssigned means a unique constraint on assigned_driver_id
	// was violated by a concurrent assign.
	ErrConcurrentlyAssigned = errors.New("ride was concurrently assigned")
	// ErrDriverNotAvailable means initialize_trip raced with another
	// assignment or the driver going offline.
	ErrDriverNotAvailable = errors.New("driver not available for trip initialization")
	// ErrRideNoLongerAssignedToDriver means the ride is no longer
	// DRIVER_ASSIGNED to the calling driver by the time initialize_trip runs.
	ErrRideNoLongerAssignedToDriver = errors.New("ride is no longer assigned to this driver")
)
