// Package geo implements the geospatial driver index (spec component C2):
// a Redis GEO set keyed by driver ID, plus a soft freshness expectation and
// an H3-bucketed sweep (SweepCell) that finds and evicts stale entries cell
// by cell without scanning every driver.
package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	redisClient "github.com/pijushrbiswas/dispatch-core/pkg/redis"
)

const (
	// IndexKey is the Redis GEO key holding every AVAILABLE driver (D1).
	IndexKey = "drivers:geo:index"

	freshnessPrefix = "driver:geo:fresh:"
	freshnessTTL    = 60 * time.Second // geo.freshness

	cellDriversPrefix  = "h3:drivers:"
	cellOfDriverPrefix = "driver:h3cell:"
	cellTTL            = 5 * time.Minute

	// DefaultRadiusKm and DefaultLimit implement match.radius_km / match.limit.
	DefaultRadiusKm = 5.0
	DefaultLimit    = 5
)

// Candidate is a single matching result: a driver and its distance from the
// query point.
type Candidate struct {
	DriverID   uuid.UUID
	DistanceKm float64
}

// Index is the geospatial driver index.
type Index struct {
	redis redisClient.ClientInterface
}

// NewIndex constructs a geospatial index backed by the given Redis client.
func NewIndex(redis redisClient.ClientInterface) *Index {
	return &Index{redis: redis}
}

// Upsert adds or refreshes a driver's position. Invariant D1 is maintained by
// the caller (Driver Registry): Upsert is only called while a driver is AVAILABLE.
func (idx *Index) Upsert(ctx context.Context, driverID uuid.UUID, lat, lon float64) error {
	memberID := driverID.String()

	if err := idx.redis.GeoAdd(ctx, IndexKey, lon, lat, memberID); err != nil {
		return apperr.NewDependencyFailure("failed to upsert driver into geo index", err)
	}

	if err := idx.touchFreshness(ctx, driverID); err != nil {
		return apperr.NewDependencyFailure("failed to refresh driver freshness key", err)
	}

	idx.rebucketCell(ctx, driverID, lat, lon)

	return nil
}

// Remove evicts a driver from the index. Called on any transition away from
// AVAILABLE, and by the freshness sweep for entries that went stale.
func (idx *Index) Remove(ctx context.Context, driverID uuid.UUID) error {
	memberID := driverID.String()

	if err := idx.redis.GeoRemove(ctx, IndexKey, memberID); err != nil {
		return apperr.NewDependencyFailure("failed to remove driver from geo index", err)
	}

	idx.redis.Delete(ctx, idx.freshnessKey(driverID))

	if prevCell, err := idx.redis.GetString(ctx, idx.cellOfDriverKey(driverID)); err == nil && prevCell != "" {
		idx.redis.SRem(ctx, idx.cellDriversKey(prevCell), memberID)
		idx.redis.Delete(ctx, idx.cellOfDriverKey(driverID))
	}

	return nil
}

// SearchNearby implements find_nearby (C8's sole collaborator): an ordered
// list of (driver_id, distance_km) within radiusKm, nearest first, capped at
// limit. Returns an empty slice, never an error, when the radius is empty.
func (idx *Index) SearchNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Candidate, error) {
	hits, err := idx.redis.GeoRadiusWithDist(ctx, IndexKey, lon, lat, radiusKm, limit)
	if err != nil {
		return nil, apperr.NewDependencyFailure("failed to search geo index", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		driverID, err := uuid.Parse(hit.Member)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{DriverID: driverID, DistanceKm: hit.DistanceKm})
	}
	return candidates, nil
}

// IsFresh reports whether a driver's geo entry is within the 60s freshness
// window. A driver whose freshness key has expired is a sweep candidate.
func (idx *Index) IsFresh(ctx context.Context, driverID uuid.UUID) bool {
	ok, err := idx.redis.Exists(ctx, idx.freshnessKey(driverID))
	return err == nil && ok
}

// SweepCell removes any driver bucketed under the H3 cell (and its k-ring
// neighbors) covering (lat, lon) whose freshness key has expired, returning
// the evicted driver IDs. It runs only when called directly: the Driver
// Registry's status transitions do not call it, and no background sweep
// runs it.
func (idx *Index) SweepCell(ctx context.Context, lat, lon float64) ([]uuid.UUID, error) {
	cells := GetKRingCellStrings(lat, lon, ResolutionMatching, KRingMatching)

	var evicted []uuid.UUID
	for _, cell := range cells {
		members, err := idx.redis.SMembers(ctx, idx.cellDriversKey(cell))
		if err != nil {
			continue
		}
		for _, memberID := range members {
			driverID, err := uuid.Parse(memberID)
			if err != nil {
				continue
			}
			if idx.IsFresh(ctx, driverID) {
				continue
			}
			if err := idx.Remove(ctx, driverID); err == nil {
				evicted = append(evicted, driverID)
			}
		}
	}
	return evicted, nil
}

func (idx *Index) touchFreshness(ctx context.Context, driverID uuid.UUID) error {
	return idx.redis.SetWithExpiration(ctx, idx.freshnessKey(driverID), []byte("1"), freshnessTTL)
}

// rebucketCell maintains the per-H3-cell driver set used by SweepCell,
// moving the driver out of its previous cell's set if it changed.
func (idx *Index) rebucketCell(ctx context.Context, driverID uuid.UUID, lat, lon float64) {
	memberID := driverID.String()
	newCell := MatchingCell(lat, lon)
	driverCellKey := idx.cellOfDriverKey(driverID)

	prevCell, err := idx.redis.GetString(ctx, driverCellKey)
	if err == nil && prevCell != "" && prevCell != newCell {
		idx.redis.SRem(ctx, idx.cellDriversKey(prevCell), memberID)
	}

	idx.redis.SetWithExpiration(ctx, driverCellKey, []byte(newCell), cellTTL)
	idx.redis.SAdd(ctx, idx.cellDriversKey(newCell), memberID)
	idx.redis.Expire(ctx, idx.cellDriversKey(newCell), cellTTL)
}

func (idx *Index) freshnessKey(driverID uuid.UUID) string {
	return freshnessPrefix + driverID.String()
}

func (idx *Index) cellDriversKey(cell string) string {
	return fmt.Sprintf("%s%s", cellDriversPrefix, cell)
}

func (idx *Index) cellOfDriverKey(driverID uuid.UUID) string {
	return cellOfDriverPrefix + driverID.String()
}
