package fare

import (
	"testing"

	"railbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func baseRule() models.PricingRule {
	return models.PricingRule{
		BaseRatePerKm:    0.5,
		TatkalMultiplier: 1.3,
		MediumThreshold:  0.5,
		MediumMultiplier: 1.1,
		HighThreshold:    0.8,
		HighMultiplier:   1.25,
	}
}

func TestComputeBase(t *testing.T) {
	// 400 km * 0.5/km * 2 passengers = 400.00
	got := Compute(400, 2, baseRule(), models.BookingGeneral, 0)
	assert.Equal(t, 400.0, got)
}

func TestComputeTatkalSurcharge(t *testing.T) {
	// 400 * 0.5 * 2 * 1.3 = 520.00
	got := Compute(400, 2, baseRule(), models.BookingTatkal, 0)
	assert.Equal(t, 520.0, got)
}

func TestComputeTatkalIgnoredForGeneral(t *testing.T) {
	general := Compute(400, 2, baseRule(), models.BookingGeneral, 0)
	tatkal := Compute(400, 2, baseRule(), models.BookingTatkal, 0)
	assert.Less(t, general, tatkal)
}

func TestComputeDemandSurge(t *testing.T) {
	rule := baseRule()

	// Below the medium threshold: baseline.
	assert.Equal(t, 400.0, Compute(400, 2, rule, models.BookingGeneral, 0.49))
	// Medium tier.
	assert.Equal(t, 440.0, Compute(400, 2, rule, models.BookingGeneral, 0.5))
	// Highest crossed tier wins, tiers do not stack.
	assert.Equal(t, 500.0, Compute(400, 2, rule, models.BookingGeneral, 0.8))
	assert.Equal(t, 500.0, Compute(400, 2, rule, models.BookingGeneral, 1.0))
}

func TestComputeSurgeStacksWithTatkal(t *testing.T) {
	// 400 * 0.5 * 2 * 1.3 * 1.25 = 650.00
	got := Compute(400, 2, baseRule(), models.BookingTatkal, 0.9)
	assert.Equal(t, 650.0, got)
}

func TestComputeRoundsHalfUp(t *testing.T) {
	rule := models.PricingRule{BaseRatePerKm: 0.333}

	// 10 * 0.333 = 3.33 exactly at 2dp
	assert.Equal(t, 3.33, Compute(10, 1, rule, models.BookingGeneral, 0))

	// Exact .xx5 midpoints round up, not to even.
	rule.BaseRatePerKm = 1.0
	got := Compute(1.125, 1, rule, models.BookingGeneral, 0)
	assert.Equal(t, 1.13, got)
}

func TestComputeDeterministic(t *testing.T) {
	rule := baseRule()
	first := Compute(733.7, 5, rule, models.BookingTatkal, 0.66)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Compute(733.7, 5, rule, models.BookingTatkal, 0.66))
	}
}

func TestComputeZeroMultipliersDisabled(t *testing.T) {
	rule := models.PricingRule{BaseRatePerKm: 1.0}
	// Unset thresholds and multipliers leave the price untouched.
	assert.Equal(t, 100.0, Compute(100, 1, rule, models.BookingTatkal, 0.95))
}
