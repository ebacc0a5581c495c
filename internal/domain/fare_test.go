package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFare_HappyPathEconomy(t *testing.T) {
	base, total := CalculateFare(TierEconomy, 10, 1200, 1.00)

	assert.Equal(t, 25.00, base)
	assert.Equal(t, 25.00, total)
}

func TestCalculateFare_SurgePremium(t *testing.T) {
	base, total := CalculateFare(TierPremium, 10, 1200, 2.0)

	assert.Equal(t, 41.00, base)
	assert.Equal(t, 82.00, total)
}

func TestCalculateFare_UnknownTierFallsBackToEconomy(t *testing.T) {
	base, _ := CalculateFare(Tier("UNKNOWN"), 0, 0, 1.0)

	assert.Equal(t, 5.00, base)
}

func TestCalculateFare_ZeroDistanceAndDuration(t *testing.T) {
	base, total := CalculateFare(TierLuxury, 0, 0, 1.0)

	assert.Equal(t, 15.00, base)
	assert.Equal(t, 15.00, total)
}
