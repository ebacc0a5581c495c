// Package drivers implements the Driver Registry (C7): driver lifecycle,
// status transitions, and the location fast path.
package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
)

// Repository handles persistence for drivers. Each exported method owns its
// own transaction boundary, matching the ride-hailing service's repository
// idiom of keeping multi-statement consistency inside the repository layer
// rather than leaking pgx.Tx to callers.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, driver *domain.Driver) error {
	const query = `
		INSERT INTO drivers (id, name, phone, status, latitude, longitude, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		driver.ID, driver.Name, driver.Phone, driver.Status, driver.Latitude, driver.Longitude, driver.Rating,
	).Scan(&driver.CreatedAt, &driver.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create driver: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	const query = `
		SELECT id, name, phone, status, latitude, longitude, rating, created_at, updated_at
		FROM drivers WHERE id = $1
	`
	return scanDriver(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) List(ctx context.Context, status *domain.DriverStatus, limit int) ([]*domain.Driver, error) {
	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = r.db.Query(ctx, `
			SELECT id, name, phone, status, latitude, longitude, rating, created_at, updated_at
			FROM drivers WHERE status = $1 ORDER BY created_at DESC LIMIT $2
		`, *status, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT id, name, phone, status, latitude, longitude, rating, created_at, updated_at
			FROM drivers ORDER BY created_at DESC LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// UpdateStatus locks the driver row, validates the transition against the
// state machine, writes the new status, and returns the updated driver —
// all inside one transaction so the validate-then-write is atomic.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, target domain.DriverStatus) (*domain.Driver, error) {
	var updated *domain.Driver

	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		const lockQuery = `
			SELECT id, name, phone, status, latitude, longitude, rating, created_at, updated_at
			FROM drivers WHERE id = $1 FOR UPDATE
		`
		driver, err := scanDriver(tx.QueryRow(ctx, lockQuery, id))
		if err != nil {
			return err
		}

		if err := domain.ValidateDriverTransition(driver.Status, target); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE drivers SET status = $1, updated_at = now() WHERE id = $2`, target, id); err != nil {
			return fmt.Errorf("update driver status: %w", err)
		}

		driver.Status = target
		updated = driver
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateLocationAsync is the non-transactional best-effort store write for
// the location fast path (§4.5): the geo index is already authoritative by
// the time this runs, so a failure here is logged by the caller and never
// surfaced. Service.UpdateLocation runs it in a goroutine of its own per
// update (async.Go); there is no queue, no bound on in-flight writes and no
// per-driver coalescing.
func (r *Repository) UpdateLocationAsync(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	_, err := r.db.Exec(ctx, `UPDATE drivers SET latitude = $1, longitude = $2, updated_at = now() WHERE id = $3`, lat, lon, id)
	return err
}

type row interface {
	Scan(dest ...interface{}) error
}

func scanDriver(r row) (*domain.Driver, error) {
	d := &domain.Driver{}
	err := r.Scan(&d.ID, &d.Name, &d.Phone, &d.Status, &d.Latitude, &d.Longitude, &d.Rating, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan driver: %w", err)
	}
	return d, nil
}
