package sizing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReport_PresetsAutoSeries(t *testing.T) {
	rep, err := ComputeReport(Request{
		KWhMonth:       115,
		InverterPreset: "aeg4200",
		ModulePreset:   "era450",
		AutoSeries:     true,
	})
	require.NoError(t, err)

	// Defaults applied and echoed back.
	in := rep.Inputs
	assert.Equal(t, 4.0, in.HSP)
	assert.Equal(t, 0.8, in.PR)
	assert.Equal(t, 8.0, in.TAmbMin)
	assert.Equal(t, 65.0, in.TCellHot)
	assert.InDelta(t, 3833.33, in.WhDay, 0.01)
	assert.Equal(t, "AEG AS-IR02-4200-2 (2 MPPT)", in.Inverter.Name)

	// Auto-series picks the activation minimum.
	assert.Equal(t, 2, in.NSeries)
	assert.Equal(t, 2, rep.Ranges.MinSeries)
	assert.Equal(t, 11, rep.Ranges.MaxSeries)

	assert.InDelta(t, 1197.9, float64(rep.RequiredWp), 0.1)
	assert.True(t, rep.StringCheck.IsCompatible)

	// One string of 2S x 450 Wp misses the 3.83 kWh/day target.
	assert.Equal(t, 1, rep.Totals.Strings)
	assert.InDelta(t, 900, rep.Totals.TotalWp, 1e-9)
	assert.InDelta(t, 2.88, rep.Totals.ProdKWhDay, 1e-9)
	assert.InDelta(t, 86.4, rep.Totals.ProdKWhMonth, 1e-9)
	assert.InDelta(t, 75.13, rep.Totals.CoveragePct, 0.01)

	require.NotNil(t, rep.Plan)
	plan := rep.Plan
	assert.Equal(t, 2, plan.RequiredStrings, "ceil(1197.9 / 900)")
	assert.Equal(t, 1, plan.CurrentStrings)
	assert.Equal(t, 1, plan.ExtraStringsNeeded)
	assert.Equal(t, 1, plan.MaxParallelPerMPPT)
	assert.Equal(t, 2, plan.CapacityStrings)
	assert.Equal(t, []int{1, 1}, plan.Distribution)
	assert.Zero(t, plan.Leftover)
	assert.InDelta(t, 1800, plan.PlannedWp, 1e-9)
	assert.InDelta(t, 5.76, plan.PlannedProdKWhDay, 1e-9)
	assert.InDelta(t, 0.9533, plan.DeficitKWhDay, 0.001)
}

func TestComputeReport_DailyTargetTakesPriority(t *testing.T) {
	rep, err := ComputeReport(Request{
		KWhMonth:     999, // ignored: WhDay wins
		WhDay:        2880,
		ModulePreset: "era450",
		NSeries:      2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 2880, rep.Inputs.WhDay, 1e-9)
	assert.InDelta(t, 86.4, rep.Inputs.KWhMonth, 1e-9, "monthly figure derived back from the daily target")
}

func TestComputeReport_CoverageBoundary(t *testing.T) {
	// 900 Wp at HSP=4, PR=0.8 produces exactly the 2880 Wh/day target:
	// coverage is 100 and no shortfall plan appears.
	rep, err := ComputeReport(Request{
		WhDay:        2880,
		ModulePreset: "era450",
		NSeries:      2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 100.0, rep.Totals.CoveragePct, 1e-9)
	assert.Nil(t, rep.Plan, "equality within epsilon must not trigger a plan")
}

func TestComputeReport_ZeroTargetCoversTrivially(t *testing.T) {
	rep, err := ComputeReport(Request{
		WhDay:        0,
		KWhMonth:     0,
		ModulePreset: "era450",
		NSeries:      2,
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, rep.Totals.CoveragePct)
	assert.Nil(t, rep.Plan)
}

func TestComputeReport_NaNRequiredPower(t *testing.T) {
	rep, err := ComputeReport(Request{
		KWhMonth:     115,
		HSP:          -1, // explicitly invalid, not merely unset
		ModulePreset: "era450",
		NSeries:      2,
	})
	require.NoError(t, err)
	assert.True(t, rep.RequiredWp.IsNaN())
	assert.Nil(t, rep.Plan, "no plan can be built from an undefined target")

	// The sentinel must survive JSON encoding as null.
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"p_req_wp":null`)
}

func TestComputeReport_ZeroChannelCapacity(t *testing.T) {
	rep, err := ComputeReport(Request{
		KWhMonth: 115,
		Module: Module{
			Wp: 450, Vmp: 41.5, Imp: 15.0, Voc: 49.3, Isc: 16.0,
		},
		NSeries: 2,
	})
	require.NoError(t, err)

	require.NotNil(t, rep.Plan)
	assert.Zero(t, rep.Plan.MaxParallelPerMPPT, "module current exceeds a single string's allowance")
	assert.Zero(t, rep.Plan.CapacityStrings)
	assert.Equal(t, []int{0, 0}, rep.Plan.Distribution)
	assert.Equal(t, rep.Plan.RequiredStrings, rep.Plan.Leftover)
}

func TestComputeReport_MPPTsUsedClampedToInverter(t *testing.T) {
	rep, err := ComputeReport(Request{
		KWhMonth:       115,
		InverterPreset: "aeg4200",
		ModulePreset:   "era450",
		NSeries:        2,
		MPPTsUsed:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inputs.MPPTsUsed)
}

func TestComputeReport_ACSizingRatio(t *testing.T) {
	rep, err := ComputeReport(Request{
		KWhMonth:     115,
		ModulePreset: "era450",
		NSeries:      4,
		NParallel:    1,
		MPPTsUsed:    2,
		InverterACkW: 3.0,
	})
	require.NoError(t, err)

	// 4S x 450 Wp x 2 strings = 3.6 kWp on a 3 kW inverter.
	require.NotNil(t, rep.ACSizing.RatioInstalledVsACRate)
	assert.InDelta(t, 1.2, *rep.ACSizing.RatioInstalledVsACRate, 1e-9)
	assert.Equal(t, "OK", rep.ACSizing.RatioStatus)
	assert.InDelta(t, 3.0, rep.ACSizing.Installed.ACTargetKW, 1e-9)
}

func TestComputeReport_AutoSeriesImpossible(t *testing.T) {
	_, err := ComputeReport(Request{
		KWhMonth:   115,
		AutoSeries: true,
		Module: Module{
			Wp: 10, Vmp: 3.0, Imp: 0.5, Voc: 3.8, Isc: 0.6,
		},
	})
	require.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestRequestValidate(t *testing.T) {
	err := Request{}.Validate()
	require.Error(t, err)
	for _, field := range []string{"wp", "vmp", "imp", "voc", "isc"} {
		assert.Contains(t, err.Error(), field)
	}

	err = Request{Module: Module{Wp: 450, Vmp: 41.5, Voc: 49.3, Isc: 11.6}}.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "imp") && !strings.Contains(err.Error(), "wp, vmp"))

	require.Error(t, Request{ModulePreset: "nope"}.Validate())
	require.Error(t, Request{InverterPreset: "nope", ModulePreset: "era450"}.Validate())
	require.Error(t, Request{ModulePreset: "era450", PR: 1.5}.Validate())
	require.NoError(t, Request{ModulePreset: "era450"}.Validate())
}

func TestComputeReport_PolicyOverride(t *testing.T) {
	pol := Policy{EnableGammaDerating: true, ModuleSystemVoltageCap: true}
	rep, err := ComputeReport(Request{
		KWhMonth:     115,
		ModulePreset: "era450",
		NSeries:      2,
		Policy:       &pol,
	})
	require.NoError(t, err)

	assert.Equal(t, pol, rep.Inputs.Policy)
	assert.Less(t, rep.StringCheck.Temps.VmpHot, 41.5, "gamma derating lowers the hot Vmp")
}
