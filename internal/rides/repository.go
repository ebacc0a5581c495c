package rides

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
)

// Repository handles database operations for ride intake.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateRide inserts a ride directly in MATCHING status: REQUESTED (§4.1) is
// transient within intake and is never itself persisted.
func (r *Repository) CreateRide(ctx context.Context, ride *domain.Ride) error {
	const query = `
		INSERT INTO rides (
			id, rider_id, pickup_latitude, pickup_longitude, drop_latitude, drop_longitude,
			tier, payment_method, status, surge_multiplier
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		ride.ID, ride.RiderID, ride.PickupLatitude, ride.PickupLongitude,
		ride.DropLatitude, ride.DropLongitude, ride.Tier, ride.PaymentMethod,
		ride.Status, ride.SurgeMultiplier,
	).Scan(&ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ride: %w", err)
	}
	return nil
}

// GetRideByID retrieves a ride by ID.
func (r *Repository) GetRideByID(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	const query = `
		SELECT id, rider_id, pickup_latitude, pickup_longitude, drop_latitude, drop_longitude,
		       tier, payment_method, status, surge_multiplier, assigned_driver_id, assigned_at,
		       created_at, updated_at
		FROM rides
		WHERE id = $1
	`
	ride := &domain.Ride{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&ride.ID, &ride.RiderID, &ride.PickupLatitude, &ride.PickupLongitude,
		&ride.DropLatitude, &ride.DropLongitude, &ride.Tier, &ride.PaymentMethod,
		&ride.Status, &ride.SurgeMultiplier, &ride.AssignedDriverID, &ride.AssignedAt,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFoundError("ride not found")
		}
		return nil, fmt.Errorf("get ride: %w", err)
	}
	return ride, nil
}

// ListRides returns rides optionally filtered by status, newest first,
// capped at limit.
func (r *Repository) ListRides(ctx context.Context, status *domain.RideStatus, limit int) ([]*domain.Ride, error) {
	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = r.db.Query(ctx, `
			SELECT id, rider_id, pickup_latitude, pickup_longitude, drop_latitude, drop_longitude,
			       tier, payment_method, status, surge_multiplier, assigned_driver_id, assigned_at,
			       created_at, updated_at
			FROM rides
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, *status, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT id, rider_id, pickup_latitude, pickup_longitude, drop_latitude, drop_longitude,
			       tier, payment_method, status, surge_multiplier, assigned_driver_id, assigned_at,
			       created_at, updated_at
			FROM rides
			ORDER BY created_at DESC
			LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
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
