package sizing

import "math"

// DailyEnergyFromMonthlyKWh converts a monthly energy goal to Wh/day.
// A non-positive day count falls back to a 30-day month.
func DailyEnergyFromMonthlyKWh(kwhMonth, daysPerMonth float64) float64 {
	if daysPerMonth <= 0 {
		daysPerMonth = DefaultDaysPerMonth
	}
	return (kwhMonth * 1000.0) / daysPerMonth
}

// RequiredPVPowerWp returns the DC power needed to produce dailyWh per
// day under the given sun hours and performance ratio. The result is
// NaN when HSP or PR is non-positive; callers must check before using
// the value downstream.
func RequiredPVPowerWp(dailyWh, hsp, pr float64) float64 {
	if hsp <= 0 || pr <= 0 {
		return math.NaN()
	}
	return dailyWh / (hsp * pr)
}

// EstimateProductionKWhDay converts installed DC power to expected
// daily energy.
func EstimateProductionKWhDay(totalWp, hsp, pr float64) float64 {
	return (totalWp / 1000.0) * hsp * pr
}
