package sizing

import (
	"math"

	"github.com/samber/lo"
)

// ShortfallPlan describes how many additional strings would close the
// gap between estimated production and the energy target, and how
// they could be spread across the inverter's MPPT channels.
type ShortfallPlan struct {
	DeficitKWhDay      float64 `json:"deficit_kwh_day"`
	DeficitKWhMonth    float64 `json:"deficit_kwh_month"`
	RequiredStrings    int     `json:"strings_required"`
	CurrentStrings     int     `json:"strings_current"`
	ExtraStringsNeeded int     `json:"strings_extra_needed"`
	MaxParallelPerMPPT int     `json:"max_parallel_per_mppt"`
	CapacityStrings    int     `json:"capacity_total_strings"`

	// Distribution holds the planned string count per MPPT channel.
	// Leftover is the unsatisfied remainder when the channels cannot
	// absorb every required string.
	Distribution []int `json:"distribution"`
	Leftover     int   `json:"leftover"`

	PlannedWp         float64 `json:"planned_wp"`
	PlannedProdKWhDay float64 `json:"planned_prod_kwh_day"`
}

// MaxParallelPerMPPT is how many strings one channel can carry before
// either the operating or the short-circuit current limit binds.
// Zero means the module's current exceeds even a single string's
// allowance and the pairing is incompatible on current.
func MaxParallelPerMPPT(mod Module, inv Inverter, iscCold float64) int {
	allowedByImp := 0
	if mod.Imp > 0 {
		allowedByImp = int(math.Floor(inv.ImaxMPPT / mod.Imp))
	}
	allowedByIsc := 0
	if iscCold > 0 {
		allowedByIsc = int(math.Floor(inv.IscMaxMPPT / iscCold))
	}

	n := allowedByImp
	if allowedByIsc < n {
		n = allowedByIsc
	}
	if n < 0 {
		n = 0
	}
	return n
}

// PlanDistribution spreads requiredStrings across nMPPT channels with
// a level-by-level greedy fill: every channel gets its first string
// before any channel gets a second, and so on up to maxParallel per
// channel. Balancing load this way keeps any single channel's current
// limit from becoming the binding constraint. The returned leftover
// is the demand the channels could not absorb; it is never silently
// clamped.
func PlanDistribution(requiredStrings, nMPPT, maxParallel int) (dist []int, leftover int) {
	if nMPPT < 0 {
		nMPPT = 0
	}
	dist = make([]int, nMPPT)

	remain := requiredStrings
	if remain < 0 {
		remain = 0
	}
	if maxParallel <= 0 {
		// No channel can carry even one string: report zero capacity
		// instead of attempting a distribution.
		return dist, remain
	}

	for level := 1; remain > 0 && level <= maxParallel; level++ {
		for i := range dist {
			if remain <= 0 {
				break
			}
			if dist[i] < level {
				dist[i]++
				remain--
			}
		}
	}
	return dist, remain
}

// planShortfall builds the full plan for a run whose production
// undershoots the daily target.
func planShortfall(needKWhDay, prodKWhDay, requiredWp float64, nSeries, currentStrings int,
	mod Module, inv Inverter, asm Assumptions, pol Policy,
) *ShortfallPlan {
	temps := ModuleAtTemps(mod, asm.TCellHot, asm.TAmbMin, pol)
	maxParallel := MaxParallelPerMPPT(mod, inv, temps.IscCold)

	stringWp := float64(nSeries) * mod.Wp
	if stringWp < 1e-9 {
		stringWp = 1e-9
	}
	requiredStrings := int(math.Ceil(requiredWp / stringWp))

	extra := requiredStrings - currentStrings
	if extra < 0 {
		extra = 0
	}

	dist, leftover := PlanDistribution(requiredStrings, inv.NumMPPT, maxParallel)
	plannedWp := float64(nSeries) * mod.Wp * float64(lo.Sum(dist))

	deficit := needKWhDay - prodKWhDay
	return &ShortfallPlan{
		DeficitKWhDay:      deficit,
		DeficitKWhMonth:    deficit * reportingDaysPerMonth,
		RequiredStrings:    requiredStrings,
		CurrentStrings:     currentStrings,
		ExtraStringsNeeded: extra,
		MaxParallelPerMPPT: maxParallel,
		CapacityStrings:    inv.NumMPPT * maxParallel,
		Distribution:       dist,
		Leftover:           leftover,
		PlannedWp:          plannedWp,
		PlannedProdKWhDay:  EstimateProductionKWhDay(plannedWp, asm.HSP, asm.PR),
	}
}
