package export

import (
	"fmt"
	"io"

	"pv-sizer/internal/sizing"
)

// WriteText renders the report the way the interactive console did:
// grouped sections with the target, hardware, thermal values, checks,
// production and the shortfall plan when one exists.
func WriteText(w io.Writer, rep *sizing.Report) error {
	in := rep.Inputs
	check := rep.StringCheck

	p := func(format string, args ...any) { fmt.Fprintf(w, format+"\n", args...) }

	p("=== PV STRING SIZING REPORT ===")
	p("")
	p("Target: %.1f kWh/month  ->  %.0f Wh/day", in.KWhMonth, in.WhDay)
	if rep.RequiredWp.IsNaN() {
		p("HSP=%.2f h  PR=%.2f  ->  required PV power undefined (non-positive HSP or PR)", in.HSP, in.PR)
	} else {
		p("HSP=%.2f h  PR=%.2f  ->  required PV power ~ %.2f kWp", in.HSP, in.PR, float64(rep.RequiredWp)/1000.0)
	}
	p("")
	p("Inverter: %s", in.Inverter.Name)
	p("  MPPT: %.0f-%.0f V | Vdc_max: %.0f V", in.Inverter.MPPTMinV, in.Inverter.MPPTMaxV, in.Inverter.VdcMax)
	p("  Imax_MPPT: %.2f A | Iscmax_MPPT: %.2f A | MPPTs: %d", in.Inverter.ImaxMPPT, in.Inverter.IscMaxMPPT, in.Inverter.NumMPPT)
	p("")
	p("Module: %s", in.Module.Name)
	p("  STC: %.0f Wp  Vmp=%.2f V  Imp=%.2f A  Voc=%.2f V  Isc=%.2f A", in.Module.Wp, in.Module.Vmp, in.Module.Imp, in.Module.Voc, in.Module.Isc)
	p("  Thermal assumptions: T_cell_hot=%.0f C, T_amb_min=%.0f C", in.TCellHot, in.TAmbMin)
	p("  Vmp_hot(mod): %.2f V | Voc_cold(mod): %.2f V | Isc_cold(mod): %.2f A",
		check.Temps.VmpHot, check.Temps.VocCold, check.Temps.IscCold)
	p("")
	p("--- Permitted series range ---")
	p("  Min series (MPPT activation at heat): %dS", rep.Ranges.MinSeries)
	p("  Max series by voltage limit (%.0f V): %dS | by MPPT max: %dS  =>  max permitted: %dS",
		rep.Ranges.VLimitUsed, rep.Ranges.MaxSeriesVLimit, rep.Ranges.MaxSeriesMPPT, rep.Ranges.MaxSeries)
	p("")
	p("--- Evaluated configuration ---")
	p("  Series (S): %d | Parallel per MPPT (P): %d | MPPTs used: %d | Total strings: %d",
		in.NSeries, in.NParallel, in.MPPTsUsed, rep.Totals.Strings)
	p("  Vmp_hot(string): %.1f V | Voc_cold(string): %.1f V", check.VmpHotStringV, check.VocColdStringV)
	p("  I_operating(total): %.2f A | Isc_total (per MPPT): %.2f A", check.ImpTotalA, check.IscColdTotalA)
	p("  Checks:")
	for _, r := range check.Results() {
		status := "OK"
		if !r.OK {
			status = "FAIL"
		}
		p("    - %s: %s", r.Label, status)
	}
	p("")
	p("--- Estimated production ---")
	p("  Peak power: %.2f kWp", rep.Totals.TotalWp/1000.0)
	p("  Production: %.2f kWh/day (~%.0f kWh/month) | Coverage: %.1f%%",
		rep.Totals.ProdKWhDay, rep.Totals.ProdKWhMonth, rep.Totals.CoveragePct)

	if plan := rep.Plan; plan != nil {
		p("")
		p("--- Shortfall plan ---")
		p("  Deficit: %.2f kWh/day (~%.0f kWh/month)", plan.DeficitKWhDay, plan.DeficitKWhMonth)
		p("  Strings required: %d (have %d, extra needed %d)",
			plan.RequiredStrings, plan.CurrentStrings, plan.ExtraStringsNeeded)
		p("  Channel capacity: %d strings/MPPT x %d MPPT = %d",
			plan.MaxParallelPerMPPT, len(plan.Distribution), plan.CapacityStrings)
		p("  Distribution per MPPT: %v", plan.Distribution)
		if plan.Leftover > 0 {
			p("  UNSATISFIED: %d string(s) do not fit this inverter", plan.Leftover)
		}
		p("  Planned: %.2f kWp -> %.2f kWh/day", plan.PlannedWp/1000.0, plan.PlannedProdKWhDay)
	}

	if rs := rep.ACSizing.RatioStatus; rs != "" {
		p("")
		p("--- Inverter AC sizing ---")
		p("  Installed DC/AC ratio: %.2f (%s)", *rep.ACSizing.RatioInstalledVsACRate, rs)
		p("  Recommended AC band for installed DC: %.2f-%.2f kW (target %.2f kW)",
			rep.ACSizing.Installed.ACMinKW, rep.ACSizing.Installed.ACMaxKW, rep.ACSizing.Installed.ACTargetKW)
	}

	return nil
}
