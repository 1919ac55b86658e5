package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyTarget_MonthlyToDaily(t *testing.T) {
	// 115 kWh/month over 30 days is the canonical household target.
	daily := DailyEnergyFromMonthlyKWh(115, 30)
	assert.InDelta(t, 3833.33, daily, 0.01)

	// Non-positive day counts fall back to a 30-day month.
	assert.Equal(t, daily, DailyEnergyFromMonthlyKWh(115, 0))
	assert.Equal(t, daily, DailyEnergyFromMonthlyKWh(115, -5))
}

func TestRequiredPVPowerWp(t *testing.T) {
	req := RequiredPVPowerWp(3833.33, 4.0, 0.8)
	assert.InDelta(t, 1197.9, req, 0.1)

	// Non-positive irradiance or performance is physically meaningless
	// and must surface as NaN, never as zero.
	assert.True(t, math.IsNaN(RequiredPVPowerWp(3833.33, 0, 0.8)))
	assert.True(t, math.IsNaN(RequiredPVPowerWp(3833.33, 4, 0)))
	assert.True(t, math.IsNaN(RequiredPVPowerWp(3833.33, -1, 0.8)))
	assert.True(t, math.IsNaN(RequiredPVPowerWp(3833.33, 4, -0.2)))
}

func TestRequiredPVPowerWp_Monotonicity(t *testing.T) {
	base := RequiredPVPowerWp(3000, 4, 0.8)

	require.Greater(t, RequiredPVPowerWp(4000, 4, 0.8), base, "more energy needs more power")
	require.Less(t, RequiredPVPowerWp(3000, 5, 0.8), base, "more sun needs less power")
	require.Less(t, RequiredPVPowerWp(3000, 4, 0.9), base, "better PR needs less power")
}

func TestEstimateProductionKWhDay(t *testing.T) {
	assert.InDelta(t, 2.88, EstimateProductionKWhDay(900, 4, 0.8), 1e-9)
	assert.Zero(t, EstimateProductionKWhDay(0, 4, 0.8))
}
