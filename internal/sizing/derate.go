package sizing

// stcTemperatureC is the reference temperature all nameplate ratings
// are specified at.
const stcTemperatureC = 25.0

// TempAdjust scales an STC value by its temperature coefficient for a
// temperature deltaT degrees away from the 25 °C reference.
func TempAdjust(valueSTC, coeffPctPerC, deltaT float64) float64 {
	return valueSTC * (1.0 + (coeffPctPerC/100.0)*deltaT)
}

// ModuleTemps holds one module's electrical values at the design
// temperature extremes: Vmp at the hot cell temperature, Voc and Isc
// at the cold ambient temperature.
type ModuleTemps struct {
	VmpHot  float64 `json:"vmp_hot_v"`
	VocCold float64 `json:"voc_cold_v"`
	IscCold float64 `json:"isc_cold_a"`
}

// ModuleAtTemps derates a module's STC values for the given extremes
// under the selected policy. Voc is always cold-derated with beta;
// Vmp and Isc stay at STC unless the policy enables gamma/alpha.
func ModuleAtTemps(mod Module, tCellHot, tAmbMin float64, pol Policy) ModuleTemps {
	deltaHot := tCellHot - stcTemperatureC
	deltaCold := tAmbMin - stcTemperatureC

	t := ModuleTemps{
		VmpHot:  mod.Vmp,
		VocCold: TempAdjust(mod.Voc, mod.BetaVocPctPerC, deltaCold),
		IscCold: mod.Isc,
	}
	if pol.EnableGammaDerating {
		t.VmpHot = TempAdjust(mod.Vmp, mod.GammaPmaxPctPerC, deltaHot)
	}
	if pol.EnableAlphaDerating {
		t.IscCold = TempAdjust(mod.Isc, mod.AlphaIscPctPerC, deltaCold)
	}
	return t
}
