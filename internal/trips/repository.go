package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
)

// Repository owns the transaction boundary for every trip lifecycle write.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) lockTrip(ctx context.Context, tx pgx.Tx, tripID uuid.UUID) (*domain.Trip, error) {
	const query = `
		SELECT id, ride_id, driver_id, status, started_at, ended_at, distance_km, duration_sec,
		       base_fare, total_fare, created_at, updated_at
		FROM trips WHERE id = $1 FOR UPDATE
	`
	t := &domain.Trip{}
	err := tx.QueryRow(ctx, query, tripID).Scan(
		&t.ID, &t.RideID, &t.DriverID, &t.Status, &t.StartedAt, &t.EndedAt,
		&t.DistanceKm, &t.DurationSec, &t.BaseFare, &t.TotalFare, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFoundError("trip not found")
		}
		return nil, fmt.Errorf("lock trip: %w", err)
	}
	return t, nil
}

// Start implements start/resume: {CREATED,PAUSED}→STARTED.
func (r *Repository) Start(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	var updated *domain.Trip
	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := r.lockTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if err := domain.ValidateTripTransition(trip.Status, domain.TripStarted); err != nil {
			return err
		}

		now := time.Now().UTC()
		setStartedAt := trip.StartedAt == nil
		if setStartedAt {
			_, err = tx.Exec(ctx, `UPDATE trips SET status = $1, started_at = $2, updated_at = now() WHERE id = $3`, domain.TripStarted, now, tripID)
		} else {
			_, err = tx.Exec(ctx, `UPDATE trips SET status = $1, updated_at = now() WHERE id = $2`, domain.TripStarted, tripID)
		}
		if err != nil {
			return fmt.Errorf("start trip: %w", err)
		}

		trip.Status = domain.TripStarted
		if setStartedAt {
			trip.StartedAt = &now
		}
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Pause implements STARTED→PAUSED.
func (r *Repository) Pause(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	var updated *domain.Trip
	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := r.lockTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if err := domain.ValidateTripTransition(trip.Status, domain.TripPaused); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE trips SET status = $1, updated_at = now() WHERE id = $2`, domain.TripPaused, tripID); err != nil {
			return fmt.Errorf("pause trip: %w", err)
		}

		trip.Status = domain.TripPaused
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel implements cancel(trip_id, reason): trip→CANCELLED, driver→AVAILABLE,
// ride→CANCELLED, all in one transaction.
func (r *Repository) Cancel(ctx context.Context, tripID uuid.UUID, reason string) (*domain.Trip, error) {
	var updated *domain.Trip
	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := r.lockTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if err := domain.ValidateTripTransition(trip.Status, domain.TripCancelled); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE trips SET status = $1, updated_at = now() WHERE id = $2`, domain.TripCancelled, tripID); err != nil {
			return fmt.Errorf("cancel trip: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`, domain.DriverAvailable, trip.DriverID); err != nil {
			return fmt.Errorf("release driver: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE rides SET status = $1, updated_at = now() WHERE id = $2`, domain.RideCancelled, trip.RideID); err != nil {
			return fmt.Errorf("cancel ride: %w", err)
		}

		trip.Status = domain.TripCancelled
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// End implements end(trip_id, distance_km, duration_sec): validates ranges,
// derives missing values, computes fare from the ride's tier and surge
// multiplier, writes trip→ENDED + driver→AVAILABLE + ride→COMPLETED in one
// transaction.
func (r *Repository) End(ctx context.Context, tripID uuid.UUID, distanceKm *float64, durationSec *int) (*domain.Trip, error) {
	if distanceKm != nil && (*distanceKm < 0 || *distanceKm > 1000) {
		return nil, apperr.NewValidationError("distance_km must be between 0 and 1000")
	}
	if durationSec != nil && (*durationSec < 0 || *durationSec > 86400) {
		return nil, apperr.NewValidationError("duration_sec must be between 0 and 86400")
	}

	var updated *domain.Trip
	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		trip, err := r.lockTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		if err := domain.ValidateTripTransition(trip.Status, domain.TripEnded); err != nil {
			return err
		}

		var tier domain.Tier
		var surge float64
		if err := tx.QueryRow(ctx, `SELECT tier, surge_multiplier FROM rides WHERE id = $1 FOR UPDATE`, trip.RideID).Scan(&tier, &surge); err != nil {
			return fmt.Errorf("lock ride: %w", err)
		}

		now := time.Now().UTC()
		finalDuration := 0
		switch {
		case durationSec != nil:
			finalDuration = *durationSec
		case trip.StartedAt != nil:
			finalDuration = int(now.Sub(*trip.StartedAt).Seconds())
		}
		finalDistance := 0.0
		if distanceKm != nil {
			finalDistance = *distanceKm
		}

		baseFare, totalFare := domain.CalculateFare(tier, finalDistance, finalDuration, surge)

		if _, err := tx.Exec(ctx, `
			UPDATE trips
			SET status = $1, ended_at = $2, distance_km = $3, duration_sec = $4, base_fare = $5, total_fare = $6, updated_at = now()
			WHERE id = $7
		`, domain.TripEnded, now, finalDistance, finalDuration, baseFare, totalFare, tripID); err != nil {
			return fmt.Errorf("end trip: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`, domain.DriverAvailable, trip.DriverID); err != nil {
			return fmt.Errorf("release driver: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE rides SET status = $1, updated_at = now() WHERE id = $2`, domain.RideCompleted, trip.RideID); err != nil {
			return fmt.Errorf("complete ride: %w", err)
		}

		trip.Status = domain.TripEnded
		trip.EndedAt = &now
		trip.DistanceKm = &finalDistance
		trip.DurationSec = &finalDuration
		trip.BaseFare = &baseFare
		trip.TotalFare = &totalFare
		updated = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Receipt implements the read-only join over trip + ride + driver + payment.
func (r *Repository) Receipt(ctx context.Context, tripID uuid.UUID) (*Receipt, error) {
	const query = `
		SELECT t.id, t.ride_id, t.driver_id, d.name, r.tier, t.distance_km, t.duration_sec,
		       t.base_fare, t.total_fare, t.started_at, t.ended_at, p.status
		FROM trips t
		JOIN rides r ON r.id = t.ride_id
		JOIN drivers d ON d.id = t.driver_id
		LEFT JOIN payments p ON p.trip_id = t.id
		WHERE t.id = $1 AND t.status = $2
	`
	receipt := &Receipt{}
	var distanceKm, baseFare, totalFare *float64
	var durationSec *int
	var paymentStatus *domain.PaymentStatus
	err := r.db.QueryRow(ctx, query, tripID, domain.TripEnded).Scan(
		&receipt.TripID, &receipt.RideID, &receipt.DriverID, &receipt.DriverName, &receipt.Tier,
		&distanceKm, &durationSec, &baseFare, &totalFare, &receipt.StartedAt, &receipt.EndedAt, &paymentStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFoundError("trip receipt not available")
		}
		return nil, fmt.Errorf("load receipt: %w", err)
	}
	if distanceKm != nil {
		receipt.DistanceKm = *distanceKm
	}
	if durationSec != nil {
		receipt.DurationSec = *durationSec
	}
	if baseFare != nil {
		receipt.BaseFare = *baseFare
	}
	if totalFare != nil {
		receipt.TotalFare = *totalFare
	}
	receipt.PaymentStatus = paymentStatus
	return receipt, nil
}
