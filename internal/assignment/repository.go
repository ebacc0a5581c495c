// Package assignment implements the Assignment Service (C9): the two
// transactional operations — assign and initialize_trip — that move a ride
// from MATCHING to DRIVER_ASSIGNED and a driver's acceptance into a CREATED
// trip.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
)

// Repository owns the transaction boundaries for both assignment
// operations, matching the ride-hailing service's repository idiom.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Assign implements §4.7's assign(ride_id, driver_id): lock ride and driver,
// validate, update the ride only — driver.status is untouched until
// initialize_trip.
func (r *Repository) Assign(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Ride, error) {
	var updated *domain.Ride

	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var rideStatus domain.RideStatus
		var tier domain.Tier
		err := tx.QueryRow(ctx, `SELECT status, tier FROM rides WHERE id = $1 FOR UPDATE`, rideID).Scan(&rideStatus, &tier)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("ride not found: %w", err)
			}
			return fmt.Errorf("lock ride: %w", err)
		}

		var driverStatus domain.DriverStatus
		err = tx.QueryRow(ctx, `SELECT status FROM drivers WHERE id = $1 FOR UPDATE`, driverID).Scan(&driverStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("driver not found: %w", err)
			}
			return fmt.Errorf("lock driver: %w", err)
		}

		if err := domain.ValidateRideTransition(rideStatus, domain.RideDriverAssigned); err != nil {
			return ErrRideNotMatchable
		}
		if driverStatus != domain.DriverAvailable {
			return ErrDriverUnavailable
		}

		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			UPDATE rides
			SET status = $1, assigned_driver_id = $2, assigned_at = $3, updated_at = now()
			WHERE id = $4
		`, domain.RideDriverAssigned, driverID, now, rideID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConcurrentlyAssigned
			}
			return fmt.Errorf("update ride: %w", err)
		}

		updated = &domain.Ride{
			ID:               rideID,
			Status:           domain.RideDriverAssigned,
			Tier:             tier,
			AssignedDriverID: &driverID,
			AssignedAt:       &now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// InitializeTrip implements §4.7's initialize_trip(ride_id, driver_id). Per
// the decided re-validation rule, it locks and re-checks the ride is still
// DRIVER_ASSIGNED to the calling driver before creating the trip, closing
// the window where a driver accepts after its assignment was superseded.
func (r *Repository) InitializeTrip(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Trip, error) {
	var trip *domain.Trip

	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var driverStatus domain.DriverStatus
		err := tx.QueryRow(ctx, `SELECT status FROM drivers WHERE id = $1 FOR UPDATE`, driverID).Scan(&driverStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("driver not found: %w", err)
			}
			return fmt.Errorf("lock driver: %w", err)
		}
		if driverStatus != domain.DriverAvailable {
			return ErrDriverNotAvailable
		}

		var rideStatus domain.RideStatus
		var assignedDriverID *uuid.UUID
		err = tx.QueryRow(ctx, `SELECT status, assigned_driver_id FROM rides WHERE id = $1 FOR UPDATE`, rideID).Scan(&rideStatus, &assignedDriverID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("ride not found: %w", err)
			}
			return fmt.Errorf("lock ride: %w", err)
		}
		if rideStatus != domain.RideDriverAssigned || assignedDriverID == nil || *assignedDriverID != driverID {
			return ErrRideNoLongerAssignedToDriver
		}

		if _, err := tx.Exec(ctx, `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`, domain.DriverOnTrip, driverID); err != nil {
			return fmt.Errorf("update driver status: %w", err)
		}

		tripID := uuid.New()
		now := time.Now().UTC()
		_, err = tx.Exec(ctx, `
			INSERT INTO trips (id, ride_id, driver_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`, tripID, rideID, driverID, domain.TripCreated, now)
		if err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}

		trip = &domain.Trip{
			ID:        tripID,
			RideID:    rideID,
			DriverID:  driverID,
			Status:    domain.TripCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
