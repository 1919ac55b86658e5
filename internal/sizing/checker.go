package sizing

// CheckSet holds the five independent electrical limit checks for one
// series/parallel configuration. All five are always evaluated so a
// caller can diagnose every violation at once.
type CheckSet struct {
	MPPTMinOK bool `json:"mppt_min_ok"`
	MPPTMaxOK bool `json:"mppt_max_ok"`
	VdcMaxOK  bool `json:"vdc_max_ok"`
	ImaxOK    bool `json:"imax_ok"`
	IscMaxOK  bool `json:"iscmax_ok"`
}

// All reports whether every check passed.
func (c CheckSet) All() bool {
	return c.MPPTMinOK && c.MPPTMaxOK && c.VdcMaxOK && c.ImaxOK && c.IscMaxOK
}

// CheckResult pairs one check with its human-readable label.
type CheckResult struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	OK    bool   `json:"ok"`
}

// StringCheck is the outcome of validating one (S x P) configuration
// against an inverter's DC input limits.
type StringCheck struct {
	NSeries        int         `json:"n_series"`
	NParallel      int         `json:"n_parallel"`
	VmpHotStringV  float64     `json:"vmp_hot_string_v"`
	VocColdStringV float64     `json:"voc_cold_string_v"`
	ImpStringA     float64     `json:"imp_string_a"`
	ImpTotalA      float64     `json:"imp_total_a"`
	IscColdTotalA  float64     `json:"isc_cold_total_a"`
	Checks         CheckSet    `json:"checks"`
	IsCompatible   bool        `json:"is_compatible"`
	Temps          ModuleTemps `json:"temps"`
}

// Results returns the checks in a fixed reporting order with labels.
func (s StringCheck) Results() []CheckResult {
	return []CheckResult{
		{"mppt_min_ok", "Vmp_string >= Vmppt_min", s.Checks.MPPTMinOK},
		{"mppt_max_ok", "Vmp_string <= Vmppt_max", s.Checks.MPPTMaxOK},
		{"vdc_max_ok", "Voc_cold(string) <= voltage limit", s.Checks.VdcMaxOK},
		{"imax_ok", "I_operating_total <= Imax_MPPT", s.Checks.ImaxOK},
		{"iscmax_ok", "Isc_total <= Iscmax_MPPT", s.Checks.IscMaxOK},
	}
}

// voltageLimit is the binding absolute DC voltage ceiling: the
// inverter's Vdc_max, optionally tightened by the module's own system
// voltage rating when the policy honors it.
func voltageLimit(mod Module, inv Inverter, pol Policy) float64 {
	vlimit := inv.VdcMax
	if pol.ModuleSystemVoltageCap && mod.MaxSystemV > 0 && mod.MaxSystemV < vlimit {
		vlimit = mod.MaxSystemV
	}
	return vlimit
}

// CheckString validates nSeries modules per string and nParallel
// strings per MPPT channel against the inverter limits under the
// given temperature assumptions. It is a pure function and never
// fails: physically absurd inputs simply come back with failing
// checks. A non-positive MPPTMaxV means the upper tracking bound is
// unbounded and the corresponding check is vacuously true.
func CheckString(nSeries, nParallel int, mod Module, inv Inverter, asm Assumptions, pol Policy) StringCheck {
	temps := ModuleAtTemps(mod, asm.TCellHot, asm.TAmbMin, pol)

	vmpHotStr := float64(nSeries) * temps.VmpHot
	vocColdStr := float64(nSeries) * temps.VocCold
	impTotal := float64(nParallel) * mod.Imp
	iscTotal := float64(nParallel) * temps.IscCold

	checks := CheckSet{
		MPPTMinOK: vmpHotStr >= inv.MPPTMinV,
		MPPTMaxOK: inv.MPPTMaxV <= 0 || vmpHotStr <= inv.MPPTMaxV,
		VdcMaxOK:  vocColdStr <= voltageLimit(mod, inv, pol),
		ImaxOK:    impTotal <= inv.ImaxMPPT,
		IscMaxOK:  iscTotal <= inv.IscMaxMPPT,
	}

	return StringCheck{
		NSeries:        nSeries,
		NParallel:      nParallel,
		VmpHotStringV:  vmpHotStr,
		VocColdStringV: vocColdStr,
		ImpStringA:     mod.Imp,
		ImpTotalA:      impTotal,
		IscColdTotalA:  iscTotal,
		Checks:         checks,
		IsCompatible:   checks.All(),
		Temps:          temps,
	}
}
