package trips

import (
	"time"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
)

// Receipt is the read-only join over trip + ride + driver + payment
// produced by receipt(trip_id) (§4.9). Only ENDED trips have one.
type Receipt struct {
	TripID        uuid.UUID            `json:"trip_id"`
	RideID        uuid.UUID            `json:"ride_id"`
	DriverID      uuid.UUID            `json:"driver_id"`
	DriverName    string               `json:"driver_name"`
	Tier          domain.Tier          `json:"tier"`
	DistanceKm    float64              `json:"distance_km"`
	DurationSec   int                  `json:"duration_sec"`
	BaseFare      float64              `json:"base_fare"`
	TotalFare     float64              `json:"total_fare"`
	StartedAt     *time.Time           `json:"started_at,omitempty"`
	EndedAt       *time.Time           `json:"ended_at,omitempty"`
	PaymentStatus *domain.PaymentStatus `json:"payment_status,omitempty"`
}
