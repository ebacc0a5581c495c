package eventbus

// EventType enumerates the live-event types the bus carries (C13). These
// are the only types components may publish; the transport layer fans
// them out to subscribers unmodified.
type EventType string

const (
	EventRideCreated          EventType = "RIDE_CREATED"
	EventRideUpdated          EventType = "RIDE_UPDATED"
	EventDriverCreated        EventType = "DRIVER_CREATED"
	EventDriverStatusChanged  EventType = "DRIVER_STATUS_CHANGED"
	EventDriverLocationUpdate EventType = "DRIVER_LOCATION_UPDATED"
	EventDriverAssigned       EventType = "DRIVER_ASSIGNED"
	EventTripAccepted         EventType = "TRIP_ACCEPTED"
	EventTripStarted          EventType = "TRIP_STARTED"
	EventTripEnded            EventType = "TRIP_ENDED"
	EventTripReceipt          EventType = "TRIP_RECEIPT"
	EventPaymentCompleted     EventType = "PAYMENT_COMPLETED"
	EventPaymentFailed        EventType = "PAYMENT_FAILED"
)
