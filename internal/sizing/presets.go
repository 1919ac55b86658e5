package sizing

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// PresetInverters is the built-in inverter catalog, keyed by a short
// id usable from the CLI and the API.
var PresetInverters = map[string]Inverter{
	"aeg4200": {
		Name:       "AEG AS-IR02-4200-2 (2 MPPT)",
		MPPTMinV:   80.0,
		MPPTMaxV:   550.0,
		VdcMax:     600.0,
		ImaxMPPT:   11.0,
		IscMaxMPPT: 13.8,
		NumMPPT:    2,
	},
}

// PresetModules is the built-in PV module catalog.
var PresetModules = map[string]Module{
	"era450": {
		Name:             "ERA 450 W 24 V",
		Wp:               450.0,
		Vmp:              41.5,
		Imp:              10.85,
		Voc:              49.3,
		Isc:              11.60,
		MaxSystemV:       1000.0,
		GammaPmaxPctPerC: -0.352,
		BetaVocPctPerC:   -0.271,
		AlphaIscPctPerC:  0.049,
	},
}

// PresetInverter resolves a catalog id, erroring on unknown keys.
func PresetInverter(key string) (Inverter, error) {
	inv, ok := PresetInverters[key]
	if !ok {
		return Inverter{}, fmt.Errorf("unknown inverter preset %q (known: %v)", key, PresetKeys(PresetInverters))
	}
	return inv, nil
}

// PresetModule resolves a catalog id, erroring on unknown keys.
func PresetModule(key string) (Module, error) {
	mod, ok := PresetModules[key]
	if !ok {
		return Module{}, fmt.Errorf("unknown module preset %q (known: %v)", key, PresetKeys(PresetModules))
	}
	return mod, nil
}

// PresetKeys lists a catalog's ids in sorted order.
func PresetKeys[T any](m map[string]T) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
