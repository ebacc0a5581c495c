package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
)

// Repository provides the worker's MATCHING-ride queue reads and the
// MATCHING→EXPIRED transition.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// PollMatching implements §4.8 step 1: rides in MATCHING younger than maxAge,
// oldest first, capped at limit.
func (r *Repository) PollMatching(ctx context.Context, maxAge time.Duration, limit int) ([]*domain.Ride, error) {
	cutoff := time.Now().Add(-maxAge)
	rows, err := r.db.Query(ctx, `
		SELECT id, rider_id, pickup_latitude, pickup_longitude, drop_latitude, drop_longitude,
		       tier, payment_method, status, surge_multiplier, assigned_driver_id, assigned_at,
		       created_at, updated_at
		FROM rides
		WHERE status = $1 AND created_at > $2
		ORDER BY created_at ASC
		LIMIT $3
	`, domain.RideMatching, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("poll matching rides: %w", err)
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride := &domain.Ride{}
		if err := rows.Scan(
			&ride.ID, &ride.RiderID, &ride.PickupLatitude, &ride.PickupLongitude,
			&ride.DropLatitude, &ride.DropLongitude, &ride.Tier, &ride.PaymentMethod,
			&ride.Status, &ride.SurgeMultiplier, &ride.AssignedDriverID, &ride.AssignedAt,
			&ride.CreatedAt, &ride.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// Expire transitions a ride MATCHING→EXPIRED (§4.1, §4.8 step 3): lock the
// row, validate, write.
func (r *Repository) Expire(ctx context.Context, rideID uuid.UUID) error {
	return database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var status domain.RideStatus
		err := tx.QueryRow(ctx, `SELECT status FROM rides WHERE id = $1 FOR UPDATE`, rideID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("ride not found: %w", err)
			}
			return fmt.Errorf("lock ride: %w", err)
		}

		if err := domain.ValidateRideTransition(status, domain.RideExpired); err != nil {
			return nil // already moved on (raced with assign/cancel); not this worker's problem
		}

		_, err = tx.Exec(ctx, `UPDATE rides SET status = $1, updated_at = now() WHERE id = $2`, domain.RideExpired, rideID)
		if err != nil {
			return fmt.Errorf("expire ride: %w", err)
		}
		return nil
	})
}
