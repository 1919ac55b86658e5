package sizing

// Typical DC/AC sizing band for grid-tie systems.
const (
	DefaultDCACTarget = 1.20
	DefaultDCACMin    = 1.10
	DefaultDCACMax    = 1.30
)

// ACSizing is the recommended inverter AC rating band for a given DC
// power, derived from the DC/AC oversizing ratio.
type ACSizing struct {
	PdcKW      float64 `json:"pdc_kw"`
	ACTargetKW float64 `json:"ac_target_kw"`
	ACMinKW    float64 `json:"ac_min_kw"`
	ACMaxKW    float64 `json:"ac_max_kw"`
	DCACTarget float64 `json:"dc_ac_target"`
	DCACMin    float64 `json:"dc_ac_min"`
	DCACMax    float64 `json:"dc_ac_max"`
}

// InverterSizingFromPdc recommends an AC rating band from a DC power.
// Non-positive ratios degrade to a 1:1 recommendation.
func InverterSizingFromPdc(pdcWp, dcacTarget, dcacMin, dcacMax float64) ACSizing {
	pdcKW := pdcWp / 1000.0
	if pdcKW < 0 {
		pdcKW = 0
	}

	s := ACSizing{
		PdcKW:      pdcKW,
		ACTargetKW: pdcKW,
		ACMinKW:    pdcKW,
		ACMaxKW:    pdcKW,
		DCACTarget: dcacTarget,
		DCACMin:    dcacMin,
		DCACMax:    dcacMax,
	}
	if dcacTarget > 0 {
		s.ACTargetKW = pdcKW / dcacTarget
	}
	if dcacMax > 0 {
		s.ACMinKW = pdcKW / dcacMax
	}
	if dcacMin > 0 {
		s.ACMaxKW = pdcKW / dcacMin
	}
	return s
}

// RatioStatus classifies an installed DC/AC ratio against the typical
// band.
func RatioStatus(ratio float64) string {
	switch {
	case ratio >= DefaultDCACMin && ratio <= DefaultDCACMax:
		return "OK"
	case ratio < DefaultDCACMin:
		return "low (inverter likely underused)"
	default:
		return "high (clipping risk)"
	}
}
