// Package fare derives booking prices from route distance and pricing
// modifiers.
package fare

import (
	"math"

	"railbook/internal/models"
)

// Compute calculates the fare for a booking:
// distance * base rate per km * passenger count, multiplied by the
// tatkal surcharge for tatkal bookings and by the highest applicable
// demand multiplier, rounded half-up to 2 decimal places.
//
// utilization is the booked share of the inventory key in [0, 1] at
// decision time. The result is deterministic for fixed inputs.
func Compute(distanceKm float64, passengers int, rule models.PricingRule, bookingType models.BookingType, utilization float64) float64 {
	amount := distanceKm * rule.BaseRatePerKm * float64(passengers)

	if bookingType == models.BookingTatkal && rule.TatkalMultiplier > 1 {
		amount *= rule.TatkalMultiplier
	}

	amount *= demandMultiplier(rule, utilization)

	return roundHalfUp(amount)
}

// demandMultiplier picks the highest surge tier whose threshold the
// current utilization has crossed. Baseline is 1.0.
func demandMultiplier(rule models.PricingRule, utilization float64) float64 {
	if rule.HighThreshold > 0 && utilization >= rule.HighThreshold && rule.HighMultiplier > 1 {
		return rule.HighMultiplier
	}
	if rule.MediumThreshold > 0 && utilization >= rule.MediumThreshold && rule.MediumMultiplier > 1 {
		return rule.MediumMultiplier
	}
	return 1.0
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
