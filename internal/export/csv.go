// Package export renders a computed sizing report as CSV, JSON or
// formatted text. It performs no calculation of its own.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"pv-sizer/internal/sizing"
)

// WriteCSV writes the report's headline figures as field/value rows.
func WriteCSV(w io.Writer, rep *sizing.Report) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Field", "Value"},
		{"Target (kWh/month)", ftoa(rep.Inputs.KWhMonth)},
		{"Target (Wh/day)", ftoa(rep.Inputs.WhDay)},
		{"HSP (h/day)", ftoa(rep.Inputs.HSP)},
		{"PR", ftoa(rep.Inputs.PR)},
		{"T_amb_min (C)", ftoa(rep.Inputs.TAmbMin)},
		{"T_cell_hot (C)", ftoa(rep.Inputs.TCellHot)},
		{"Series (S)", strconv.Itoa(rep.Inputs.NSeries)},
		{"Parallel per MPPT (P)", strconv.Itoa(rep.Inputs.NParallel)},
		{"MPPTs used", strconv.Itoa(rep.Inputs.MPPTsUsed)},
		{"Required power (kWp)", ftoa(float64(rep.RequiredWp) / 1000.0)},
		{"Installed power (kWp)", ftoa(rep.Totals.TotalWp / 1000.0)},
		{"Production (kWh/day)", ftoa(rep.Totals.ProdKWhDay)},
		{"Production (kWh/month)", ftoa(rep.Totals.ProdKWhMonth)},
		{"Coverage (%)", ftoa(rep.Totals.CoveragePct)},
		{"Compatible", strconv.FormatBool(rep.StringCheck.IsCompatible)},
	}
	for _, r := range rep.StringCheck.Results() {
		status := "OK"
		if !r.OK {
			status = "FAIL"
		}
		rows = append(rows, []string{"Check: " + r.Label, status})
	}
	if plan := rep.Plan; plan != nil {
		rows = append(rows,
			[]string{"Deficit (kWh/day)", ftoa(plan.DeficitKWhDay)},
			[]string{"Strings required", strconv.Itoa(plan.RequiredStrings)},
			[]string{"Extra strings needed", strconv.Itoa(plan.ExtraStringsNeeded)},
			[]string{"Plan leftover (strings)", strconv.Itoa(plan.Leftover)},
		)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, rep *sizing.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
