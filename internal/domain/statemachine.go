package domain

import "github.com/pijushrbiswas/dispatch-core/pkg/apperr"

// EntityKind names which transition table Validate consults.
type EntityKind string

const (
	EntityTrip   EntityKind = "trip"
	EntityRide   EntityKind = "ride"
	EntityDriver EntityKind = "driver"
)

var tripTransitions = map[TripStatus][]TripStatus{
	TripCreated: {TripStarted, TripCancelled},
	TripStarted: {TripPaused, TripEnded, TripCancelled},
	TripPaused:  {TripStarted, TripEnded, TripCancelled},
}

var rideTransitions = map[RideStatus][]RideStatus{
	RideRequested:      {RideMatching, RideCancelled, RideExpired},
	RideMatching:       {RideDriverAssigned, RideCancelled, RideExpired},
	RideDriverAssigned: {RideCompleted, RideCancelled},
}

var driverTransitions = map[DriverStatus][]DriverStatus{
	DriverOffline:   {DriverAvailable},
	DriverAvailable: {DriverOffline, DriverOnTrip},
	DriverOnTrip:    {DriverAvailable, DriverOffline},
}

// ValidateTripTransition reports whether from->to is permitted for a trip,
// returning an *apperr.AppError carrying InvalidTransition detail otherwise.
func ValidateTripTransition(from, to TripStatus) error {
	allowed := tripTransitions[from]
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return invalidTransition("trip", string(from), string(to), toStrings(allowed))
}

// ValidateRideTransition reports whether from->to is permitted for a ride.
//
// DRIVER_ASSIGNED->DRIVER_ASSIGNED is deliberately absent from the table:
// it is rejected here as InvalidTransition rather than treated as an
// idempotent no-op re-assignment.
func ValidateRideTransition(from, to RideStatus) error {
	allowed := rideTransitions[from]
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return invalidTransition("ride", string(from), string(to), toStrings(allowed))
}

// ValidateDriverTransition reports whether from->to is permitted for a driver.
func ValidateDriverTransition(from, to DriverStatus) error {
	allowed := driverTransitions[from]
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return invalidTransition("driver", string(from), string(to), toStrings(allowed))
}

// IsTripTerminal reports whether status has no outgoing transitions.
func IsTripTerminal(status TripStatus) bool {
	return status == TripEnded || status == TripCancelled
}

// IsRideTerminal reports whether status has no outgoing transitions.
func IsRideTerminal(status RideStatus) bool {
	return status == RideCompleted || status == RideCancelled || status == RideExpired
}

func invalidTransition(entity, from, to string, allowed []string) error {
	return apperr.NewInvalidTransitionError(apperr.TransitionDetail{
		Entity:  entity,
		Current: from,
		Target:  to,
		Allowed: allowed,
	})
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
