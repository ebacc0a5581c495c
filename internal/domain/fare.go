package domain

import "math"

// CalculateFare implements the trip-end fare formula (P5: deterministic for
// fixed inputs). baseFare is the pre-surge subtotal; totalFare is the
// surge-multiplied total, both rounded half-up to two decimal places.
func CalculateFare(tier Tier, distanceKm float64, durationSec int, surgeMultiplier float64) (baseFare, totalFare float64) {
	rate, ok := TierRates[tier]
	if !ok {
		rate = TierRates[TierEconomy]
	}

	minutes := float64(durationSec) / 60.0
	subtotal := rate.Base + distanceKm*rate.PerKm + minutes*rate.PerMin
	base := roundHalfUp(subtotal)
	total := roundHalfUp(subtotal * surgeMultiplier)

	return base, total
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
