package sizing

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// NullableFloat marshals NaN as JSON null so the required-power
// sentinel survives encoding; encoding/json rejects raw NaN.
type NullableFloat float64

func (f NullableFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *NullableFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = NullableFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// IsNaN reports whether the value carries the not-a-number sentinel.
func (f NullableFloat) IsNaN() bool { return math.IsNaN(float64(f)) }

// Documented defaults for every optional input. Zero-valued fields in
// a Request take these, matching the defaults the web form and CLI
// variants have always shipped with.
const (
	DefaultDaysPerMonth = 30.0
	DefaultHSP          = 4.0
	DefaultPR           = 0.80
	DefaultTAmbMin      = 8.0
	DefaultTCellHot     = 65.0

	// reportingDaysPerMonth converts daily production to the monthly
	// figure shown in reports, independent of the Days input used for
	// the energy target.
	reportingDaysPerMonth = 30.0

	// shortfallEpsilon keeps exact target coverage from triggering a
	// plan through floating-point noise.
	shortfallEpsilon = 1e-9
)

// Default custom-hardware values applied when the corresponding
// Request field is zero and no preset is selected. The module's five
// electrical ratings deliberately have no defaults; see Validate.
var (
	defaultInverter = Inverter{
		Name:       "Custom Inverter",
		MPPTMinV:   80.0,
		MPPTMaxV:   550.0,
		VdcMax:     600.0,
		ImaxMPPT:   11.0,
		IscMaxMPPT: 13.8,
		NumMPPT:    2,
	}
	defaultModuleName       = "Custom Module"
	defaultMaxSystemV       = 1000.0
	defaultGammaPmaxPctPerC = -0.35
	defaultBetaVocPctPerC   = -0.27
	defaultAlphaIscPctPerC  = 0.05
)

// Request carries every input of one sizing run as a typed structure.
// Optional fields left at their zero value take the documented
// defaults when Resolve runs.
type Request struct {
	// Energy target: WhDay takes priority over KWhMonth when set.
	KWhMonth float64 `json:"kwh_month"`
	WhDay    float64 `json:"wh_day"`
	Days     float64 `json:"days"`

	// Irradiance, performance and temperature assumptions.
	HSP      float64 `json:"hsp"`
	PR       float64 `json:"pr"`
	TAmbMin  float64 `json:"t_amb_min_c"`
	TCellHot float64 `json:"t_cell_hot_c"`

	// Hardware, either by preset id or fully specified.
	InverterPreset string   `json:"inverter_preset,omitempty"`
	Inverter       Inverter `json:"inverter"`
	ModulePreset   string   `json:"module_preset,omitempty"`
	Module         Module   `json:"module"`

	// Array topology.
	AutoSeries bool `json:"auto_series"`
	NSeries    int  `json:"n_series"`
	NParallel  int  `json:"n_parallel"`
	MPPTsUsed  int  `json:"mppts_used"`

	// Inverter AC sizing inputs. InverterACkW is the optional actual
	// AC rating used to judge the installed DC/AC ratio.
	DCACTarget   float64 `json:"dc_ac_target"`
	InverterACkW float64 `json:"inverter_ac_kw"`

	// Policy overrides the engine's derating model when set.
	Policy *Policy `json:"policy,omitempty"`
}

// ResolvedInputs echoes the request back with presets expanded and
// every default applied.
type ResolvedInputs struct {
	KWhMonth     float64  `json:"kwh_month"`
	WhDay        float64  `json:"wh_day"`
	Days         float64  `json:"days"`
	HSP          float64  `json:"hsp"`
	PR           float64  `json:"pr"`
	TAmbMin      float64  `json:"t_amb_min_c"`
	TCellHot     float64  `json:"t_cell_hot_c"`
	AutoSeries   bool     `json:"auto_series"`
	NSeries      int      `json:"n_series"`
	NParallel    int      `json:"n_parallel"`
	MPPTsUsed    int      `json:"mppts_used"`
	Inverter     Inverter `json:"inverter"`
	Module       Module   `json:"module"`
	DCACTarget   float64  `json:"dc_ac_target"`
	InverterACkW float64  `json:"inverter_ac_kw"`
	Policy       Policy   `json:"policy"`
}

// Production summarizes the installed array and its expected output.
type Production struct {
	Strings      int     `json:"strings"`
	TotalWp      float64 `json:"wp"`
	ProdKWhDay   float64 `json:"prod_kwh_day"`
	ProdKWhMonth float64 `json:"prod_kwh_month"`
	CoveragePct  float64 `json:"coverage_pct"`
}

// ACSizingSummary compares the recommended AC band for the required
// and the installed DC power. Ratio fields stay nil when the user did
// not supply the inverter's AC rating.
type ACSizingSummary struct {
	Required               ACSizing `json:"required"`
	Installed              ACSizing `json:"installed"`
	RatioInstalledVsACRate *float64 `json:"ratio_installed_vs_ac_rate,omitempty"`
	RatioStatus            string   `json:"ratio_status,omitempty"`
}

// Report is the read-only result of one sizing run. It is created
// fresh per invocation and never mutated afterwards.
type Report struct {
	Inputs      ResolvedInputs  `json:"inputs"`
	Ranges      SeriesRange     `json:"ranges"`
	StringCheck StringCheck     `json:"string_check"`
	RequiredWp  NullableFloat   `json:"p_req_wp"`
	Totals      Production      `json:"total"`
	ACSizing    ACSizingSummary `json:"inverter_sizing"`
	Plan        *ShortfallPlan  `json:"plan,omitempty"`
}

// Validate rejects requests that cannot be computed safely. A custom
// module (no preset) must carry all five electrical ratings; there is
// no safe default for them.
func (r Request) Validate() error {
	if r.ModulePreset != "" {
		if _, err := PresetModule(r.ModulePreset); err != nil {
			return err
		}
	} else {
		var missing []string
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"wp", r.Module.Wp},
			{"vmp", r.Module.Vmp},
			{"imp", r.Module.Imp},
			{"voc", r.Module.Voc},
			{"isc", r.Module.Isc},
		} {
			if f.value == 0 {
				missing = append(missing, f.name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("module parameters missing (select a module preset or set: %s)", strings.Join(missing, ", "))
		}
	}
	if r.InverterPreset != "" {
		if _, err := PresetInverter(r.InverterPreset); err != nil {
			return err
		}
	}
	if r.PR > 1 {
		return fmt.Errorf("pr must be within (0, 1], got %g", r.PR)
	}
	return nil
}

// Resolve expands presets and applies defaults, producing the
// concrete inputs the engine operates on.
func (r Request) Resolve() (ResolvedInputs, error) {
	if err := r.Validate(); err != nil {
		return ResolvedInputs{}, err
	}

	inv := r.Inverter
	if r.InverterPreset != "" {
		inv, _ = PresetInverter(r.InverterPreset)
	} else {
		defaultFloat(&inv.MPPTMinV, defaultInverter.MPPTMinV)
		defaultFloat(&inv.MPPTMaxV, defaultInverter.MPPTMaxV)
		defaultFloat(&inv.VdcMax, defaultInverter.VdcMax)
		defaultFloat(&inv.ImaxMPPT, defaultInverter.ImaxMPPT)
		defaultFloat(&inv.IscMaxMPPT, defaultInverter.IscMaxMPPT)
		if inv.NumMPPT <= 0 {
			inv.NumMPPT = defaultInverter.NumMPPT
		}
		if inv.Name == "" {
			inv.Name = defaultInverter.Name
		}
	}

	mod := r.Module
	if r.ModulePreset != "" {
		mod, _ = PresetModule(r.ModulePreset)
	} else {
		if mod.Name == "" {
			mod.Name = defaultModuleName
		}
		defaultFloat(&mod.MaxSystemV, defaultMaxSystemV)
		defaultFloat(&mod.GammaPmaxPctPerC, defaultGammaPmaxPctPerC)
		defaultFloat(&mod.BetaVocPctPerC, defaultBetaVocPctPerC)
		defaultFloat(&mod.AlphaIscPctPerC, defaultAlphaIscPctPerC)
	}

	in := ResolvedInputs{
		KWhMonth:     r.KWhMonth,
		WhDay:        r.WhDay,
		Days:         r.Days,
		HSP:          r.HSP,
		PR:           r.PR,
		TAmbMin:      r.TAmbMin,
		TCellHot:     r.TCellHot,
		AutoSeries:   r.AutoSeries,
		NSeries:      r.NSeries,
		NParallel:    r.NParallel,
		MPPTsUsed:    r.MPPTsUsed,
		Inverter:     inv,
		Module:       mod,
		DCACTarget:   r.DCACTarget,
		InverterACkW: r.InverterACkW,
		Policy:       DefaultPolicy(),
	}
	if r.Policy != nil {
		in.Policy = *r.Policy
	}

	defaultFloat(&in.Days, DefaultDaysPerMonth)
	defaultFloat(&in.HSP, DefaultHSP)
	defaultFloat(&in.PR, DefaultPR)
	defaultFloat(&in.TAmbMin, DefaultTAmbMin)
	defaultFloat(&in.TCellHot, DefaultTCellHot)
	defaultFloat(&in.DCACTarget, DefaultDCACTarget)
	if in.NSeries <= 0 {
		in.NSeries = 3
	}
	if in.NParallel <= 0 {
		in.NParallel = 1
	}
	if in.MPPTsUsed <= 0 {
		in.MPPTsUsed = 1
	}
	if in.MPPTsUsed > inv.NumMPPT {
		in.MPPTsUsed = inv.NumMPPT
	}

	// Resolve the energy target: a direct daily value wins.
	if in.WhDay > 0 {
		in.KWhMonth = in.WhDay * in.Days / 1000.0
	} else {
		in.WhDay = DailyEnergyFromMonthlyKWh(in.KWhMonth, in.Days)
	}

	return in, nil
}

func defaultFloat(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

// ComputeReport runs the whole sizing pipeline: energy target, series
// range, compatibility check, production estimate and, when the
// target is missed, the shortfall plan. It returns a hard error only
// for invalid requests or an impossible auto-series search; every
// other configuration is computed and reported with failing checks.
func ComputeReport(req Request) (*Report, error) {
	in, err := req.Resolve()
	if err != nil {
		return nil, err
	}

	asm := Assumptions{
		TCellHot: in.TCellHot,
		TAmbMin:  in.TAmbMin,
		HSP:      in.HSP,
		PR:       in.PR,
	}

	requiredWp := RequiredPVPowerWp(in.WhDay, in.HSP, in.PR)
	ranges := SuggestSeriesRange(in.Module, in.Inverter, asm, in.Policy)

	if in.AutoSeries {
		n, err := MinSeriesForMPPT(in.Module, in.Inverter, in.TCellHot, in.Policy)
		if err != nil {
			return nil, err
		}
		in.NSeries = n
	}

	check := CheckString(in.NSeries, in.NParallel, in.Module, in.Inverter, asm, in.Policy)

	totalStrings := in.NParallel * in.MPPTsUsed
	totalWp := float64(in.NSeries) * in.Module.Wp * float64(totalStrings)
	prodDay := EstimateProductionKWhDay(totalWp, in.HSP, in.PR)

	needKWhDay := in.WhDay / 1000.0
	coverage := 100.0
	if needKWhDay > 0 {
		coverage = prodDay / needKWhDay * 100.0
	}

	sizing := ACSizingSummary{
		Installed: InverterSizingFromPdc(totalWp, in.DCACTarget, DefaultDCACMin, DefaultDCACMax),
	}
	if !math.IsNaN(requiredWp) {
		sizing.Required = InverterSizingFromPdc(requiredWp, in.DCACTarget, DefaultDCACMin, DefaultDCACMax)
	}
	if in.InverterACkW > 0 {
		ratio := (totalWp / 1000.0) / in.InverterACkW
		sizing.RatioInstalledVsACRate = &ratio
		sizing.RatioStatus = RatioStatus(ratio)
	}

	var plan *ShortfallPlan
	if !math.IsNaN(requiredWp) && prodDay+shortfallEpsilon < needKWhDay {
		plan = planShortfall(needKWhDay, prodDay, requiredWp, in.NSeries, totalStrings,
			in.Module, in.Inverter, asm, in.Policy)
	}

	return &Report{
		Inputs:      in,
		Ranges:      ranges,
		StringCheck: check,
		RequiredWp:  NullableFloat(requiredWp),
		Totals: Production{
			Strings:      totalStrings,
			TotalWp:      totalWp,
			ProdKWhDay:   prodDay,
			ProdKWhMonth: prodDay * reportingDaysPerMonth,
			CoveragePct:  coverage,
		},
		ACSizing: sizing,
		Plan:     plan,
	}, nil
}
