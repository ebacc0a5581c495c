package geo

import (
	"github.com/uber/h3-go/v4"
)

// H3 resolution used to bucket driver positions for the freshness sweep.
// See: https://h3geo.org/docs/core-library/restable
const (
	// ResolutionMatching buckets drivers at roughly a 175m edge (~0.11 km²),
	// fine enough that a k-ring sweep stays well within the 5km match radius.
	ResolutionMatching = 9

	// KRingMatching is the k-ring radius the freshness sweep walks around a
	// cell; at resolution 9, k=4 covers roughly a 1.4 km radius.
	KRingMatching = 4
)

// LatLngToCell converts latitude/longitude to an H3 cell index at the given resolution.
func LatLngToCell(lat, lng float64, resolution int) h3.Cell {
	latLng := h3.NewLatLng(lat, lng)
	cell, err := h3.LatLngToCell(latLng, resolution)
	if err != nil {
		return 0
	}
	return cell
}

// GetKRingCellStrings returns the k-ring cells around (lat, lng) as hex strings,
// used to key the per-cell freshness-sweep bookkeeping in Redis.
func GetKRingCellStrings(lat, lng float64, resolution, k int) []string {
	origin := LatLngToCell(lat, lng, resolution)
	cells, err := origin.GridDisk(k)
	if err != nil {
		cells = []h3.Cell{origin}
	}
	result := make([]string, len(cells))
	for i, cell := range cells {
		result[i] = cell.String()
	}
	return result
}

// MatchingCell returns the H3 cell index (as a hex string) for driver-rider
// matching freshness bucketing at the given location.
func MatchingCell(lat, lng float64) string {
	return LatLngToCell(lat, lng, ResolutionMatching).String()
}
