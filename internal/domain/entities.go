// Package domain holds the dispatch core's entity types and the pure state
// machine (C5) that every component validates transitions against. It has
// no store or transport dependency; everything else in the module depends
// on it, never the other way around.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type DriverStatus string

const (
	DriverOffline  DriverStatus = "OFFLINE"
	DriverAvailable DriverStatus = "AVAILABLE"
	DriverOnTrip   DriverStatus = "ON_TRIP"
)

// Driver is D1/D2 from the data model: present in the geo index iff
// AVAILABLE, and bound to at most one non-terminal trip at a time.
type Driver struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Phone     string       `json:"phone" db:"phone"`
	Status    DriverStatus `json:"status" db:"status"`
	Latitude  *float64     `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64     `json:"longitude,omitempty" db:"longitude"`
	Rating    float64      `json:"rating" db:"rating"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

type RideStatus string

const (
	RideRequested      RideStatus = "REQUESTED"
	RideMatching       RideStatus = "MATCHING"
	RideDriverAssigned RideStatus = "DRIVER_ASSIGNED"
	RideCompleted      RideStatus = "COMPLETED"
	RideCancelled      RideStatus = "CANCELLED"
	RideExpired        RideStatus = "EXPIRED"
)

type Tier string

const (
	TierEconomy Tier = "ECONOMY"
	TierPremium Tier = "PREMIUM"
	TierLuxury  Tier = "LUXURY"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodWallet PaymentMethod = "WALLET"
	PaymentMethodUPI    PaymentMethod = "UPI"
)

// Ride is R1/R2 from the data model. AssignedDriverID is unique among rides
// with a live assignment; the uniqueness is enforced by a store constraint,
// not by this struct.
type Ride struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	RiderID          uuid.UUID     `json:"rider_id" db:"rider_id"`
	PickupLatitude   float64       `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude  float64       `json:"pickup_longitude" db:"pickup_longitude"`
	DropLatitude     float64       `json:"drop_latitude" db:"drop_latitude"`
	DropLongitude    float64       `json:"drop_longitude" db:"drop_longitude"`
	Tier             Tier          `json:"tier" db:"tier"`
	PaymentMethod    PaymentMethod `json:"payment_method" db:"payment_method"`
	Status           RideStatus    `json:"status" db:"status"`
	SurgeMultiplier  float64       `json:"surge_multiplier" db:"surge_multiplier"`
	AssignedDriverID *uuid.UUID    `json:"assigned_driver_id,omitempty" db:"assigned_driver_id"`
	AssignedAt       *time.Time    `json:"assigned_at,omitempty" db:"assigned_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

type TripStatus string

const (
	TripCreated   TripStatus = "CREATED"
	TripStarted   TripStatus = "STARTED"
	TripPaused    TripStatus = "PAUSED"
	TripEnded     TripStatus = "ENDED"
	TripCancelled TripStatus = "CANCELLED"
)

// Trip is T1/T2 from the data model. A given driver has at most one trip
// with a non-terminal status, enforced by a partial-unique constraint in
// the store.
type Trip struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	RideID      uuid.UUID  `json:"ride_id" db:"ride_id"`
	DriverID    uuid.UUID  `json:"driver_id" db:"driver_id"`
	Status      TripStatus `json:"status" db:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DistanceKm  *float64   `json:"distance_km,omitempty" db:"distance_km"`
	DurationSec *int       `json:"duration_sec,omitempty" db:"duration_sec"`
	BaseFare    *float64   `json:"base_fare,omitempty" db:"base_fare"`
	TotalFare   *float64   `json:"total_fare,omitempty" db:"total_fare"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
)

// Payment is P1 from the data model: reaches COMPLETED or FAILED only via a
// PSP webhook or after exhausting retries — never directly from the outbox
// worker's success path, which only advances PENDING to PROCESSING.
type Payment struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	TripID          uuid.UUID     `json:"trip_id" db:"trip_id"`
	Amount          float64       `json:"amount" db:"amount"`
	Status          PaymentStatus `json:"status" db:"status"`
	PSPTransactionID *string      `json:"psp_transaction_id,omitempty" db:"psp_transaction_id"`
	PSPResponse     *string       `json:"psp_response,omitempty" db:"psp_response"`
	RetryCount      int           `json:"retry_count" db:"retry_count"`
	MaxRetries      int           `json:"max_retries" db:"max_retries"`
	LastRetryAt     *time.Time    `json:"last_retry_at,omitempty" db:"last_retry_at"`
	NextRetryAt     *time.Time    `json:"next_retry_at,omitempty" db:"next_retry_at"`
	FailureReason   *string       `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// AggregateType names the domain aggregate an OutboxEvent was raised
// against.
type AggregateType string

const (
	AggregatePayment AggregateType = "PAYMENT"
)

// OutboxEvent is O1 from the data model: always written in the same
// transaction as the domain row it describes.
type OutboxEvent struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	AggregateType AggregateType `json:"aggregate_type" db:"aggregate_type"`
	AggregateID   uuid.UUID     `json:"aggregate_id" db:"aggregate_id"`
	EventType     string        `json:"event_type" db:"event_type"`
	Payload       []byte        `json:"payload" db:"payload"`
	Processed     bool          `json:"processed" db:"processed"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// TierRate is the per-tier fare rate table used by the Trip Service's end
// operation.
type TierRate struct {
	Base   float64
	PerKm  float64
	PerMin float64
}

var TierRates = map[Tier]TierRate{
	TierEconomy: {Base: 5.00, PerKm: 1.50, PerMin: 0.25},
	TierPremium: {Base: 8.00, PerKm: 2.50, PerMin: 0.40},
	TierLuxury:  {Base: 15.00, PerKm: 4.00, PerMin: 0.60},
}
