package sizing

import (
	"errors"
	"math"
)

// unboundedSeries is the sentinel reported when a voltage constraint
// places no upper bound on the series count.
const unboundedSeries = 999

// maxSeriesSearch caps the auto-series search; residential strings
// never get anywhere near this long.
const maxSeriesSearch = 20

// ErrSeriesNotFound means no series count within the search range
// reaches the inverter's MPPT activation voltage at heat.
var ErrSeriesNotFound = errors.New("no series count reaches the MPPT minimum voltage at the hot cell temperature")

// SeriesRange is the advisory window of permissible series counts for
// a single string. Callers may still evaluate counts outside it; the
// compatibility checker is the authority on pass/fail.
type SeriesRange struct {
	MinSeries       int     `json:"min_series"`
	MaxSeriesVLimit int     `json:"max_series_vlimit"`
	VLimitUsed      float64 `json:"vlimit_used_v"`
	MaxSeriesMPPT   int     `json:"max_series_mppt"`
	MaxSeries       int     `json:"max_series"`
	VmpHotModV      float64 `json:"vmp_hot_mod_v"`
	VocColdModV     float64 `json:"voc_cold_mod_v"`
}

// SuggestSeriesRange derives the safe series-count window from the
// voltage constraints, assuming one string per channel. The minimum
// comes from reaching MPPT activation at heat, the maximum from the
// absolute voltage ceiling at cold and (when bounded) the MPPT upper
// tracking voltage at heat. Degenerate per-module voltages fall back
// to a minimum of 1 and an unbounded maximum.
func SuggestSeriesRange(mod Module, inv Inverter, asm Assumptions, pol Policy) SeriesRange {
	temps := ModuleAtTemps(mod, asm.TCellHot, asm.TAmbMin, pol)
	vlimit := voltageLimit(mod, inv, pol)

	minSeries := 1
	if temps.VmpHot > 0 {
		minSeries = int(math.Ceil(inv.MPPTMinV / temps.VmpHot))
	}
	if minSeries < 1 {
		minSeries = 1
	}

	maxVLimit := unboundedSeries
	if temps.VocCold > 0 {
		maxVLimit = int(math.Floor(vlimit / temps.VocCold))
	}

	maxMPPT := unboundedSeries
	if inv.MPPTMaxV > 0 && temps.VmpHot > 0 {
		maxMPPT = int(math.Floor(inv.MPPTMaxV / temps.VmpHot))
	}

	maxSeries := maxVLimit
	if maxMPPT < maxSeries {
		maxSeries = maxMPPT
	}

	return SeriesRange{
		MinSeries:       minSeries,
		MaxSeriesVLimit: maxVLimit,
		VLimitUsed:      vlimit,
		MaxSeriesMPPT:   maxMPPT,
		MaxSeries:       maxSeries,
		VmpHotModV:      temps.VmpHot,
		VocColdModV:     temps.VocCold,
	}
}

// MinSeriesForMPPT searches for the smallest series count whose hot
// string voltage reaches the MPPT activation threshold. It returns
// ErrSeriesNotFound when even maxSeriesSearch modules fall short,
// which means the inverter cannot be driven with this module at the
// assumed hot temperature.
func MinSeriesForMPPT(mod Module, inv Inverter, tCellHot float64, pol Policy) (int, error) {
	temps := ModuleAtTemps(mod, tCellHot, stcTemperatureC, pol)
	for n := 1; n <= maxSeriesSearch; n++ {
		if float64(n)*temps.VmpHot >= inv.MPPTMinV {
			return n, nil
		}
	}
	return 0, ErrSeriesNotFound
}
