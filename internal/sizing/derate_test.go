package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempAdjust_IdentityAtReference(t *testing.T) {
	// At deltaT=0 no coefficient may change the value.
	for _, coeff := range []float64{-0.35, -0.27, 0, 0.05, 1.5} {
		assert.Equal(t, 41.5, TempAdjust(41.5, coeff, 0))
	}
}

func TestTempAdjust_Directions(t *testing.T) {
	// Heat with a negative coefficient lowers voltage, cold raises it.
	hot := TempAdjust(41.5, -0.35, 40)
	cold := TempAdjust(49.3, -0.27, -17)
	assert.Less(t, hot, 41.5)
	assert.Greater(t, cold, 49.3)
	assert.InDelta(t, 51.563, cold, 0.01)
}

func TestModuleAtTemps_DefaultPolicyFreezesVmpAndIsc(t *testing.T) {
	mod := Module{
		Vmp: 41.5, Voc: 49.3, Isc: 11.6,
		GammaPmaxPctPerC: -0.35, BetaVocPctPerC: -0.27, AlphaIscPctPerC: 0.05,
	}

	temps := ModuleAtTemps(mod, 65, 8, DefaultPolicy())
	assert.Equal(t, 41.5, temps.VmpHot, "Vmp stays at STC without gamma derating")
	assert.Equal(t, 11.6, temps.IscCold, "Isc stays at STC without alpha derating")
	assert.InDelta(t, 51.563, temps.VocCold, 0.01, "Voc is always cold-derated with beta")
}

func TestModuleAtTemps_FullDerating(t *testing.T) {
	mod := Module{
		Vmp: 41.5, Voc: 49.3, Isc: 11.6,
		GammaPmaxPctPerC: -0.35, BetaVocPctPerC: -0.27, AlphaIscPctPerC: 0.05,
	}
	pol := Policy{EnableGammaDerating: true, EnableAlphaDerating: true, ModuleSystemVoltageCap: true}

	temps := ModuleAtTemps(mod, 65, 8, pol)
	require.InDelta(t, TempAdjust(41.5, -0.35, 40), temps.VmpHot, 1e-12)
	require.InDelta(t, TempAdjust(11.6, 0.05, -17), temps.IscCold, 1e-12)
	assert.Less(t, temps.VmpHot, mod.Vmp)
	assert.Less(t, temps.IscCold, mod.Isc)
}
