package sizing

// Inverter describes the DC input limits of a grid-tie inverter.
// All values come from the manufacturer datasheet and never change
// after construction.
type Inverter struct {
	Name       string  `json:"name" mapstructure:"name"`
	MPPTMinV   float64 `json:"mppt_min_v" mapstructure:"mppt_min_v"`
	MPPTMaxV   float64 `json:"mppt_max_v" mapstructure:"mppt_max_v"`
	VdcMax     float64 `json:"vdc_max_v" mapstructure:"vdc_max_v"`
	ImaxMPPT   float64 `json:"imax_mppt_a" mapstructure:"imax_mppt_a"`
	IscMaxMPPT float64 `json:"iscmax_mppt_a" mapstructure:"iscmax_mppt_a"`
	NumMPPT    int     `json:"n_mppt" mapstructure:"n_mppt"`
}

// Module describes a PV module's nameplate ratings at STC (25 °C)
// plus its temperature coefficients in %/°C.
type Module struct {
	Name       string  `json:"name" mapstructure:"name"`
	Wp         float64 `json:"wp" mapstructure:"wp"`
	Vmp        float64 `json:"vmp_v" mapstructure:"vmp_v"`
	Imp        float64 `json:"imp_a" mapstructure:"imp_a"`
	Voc        float64 `json:"voc_v" mapstructure:"voc_v"`
	Isc        float64 `json:"isc_a" mapstructure:"isc_a"`
	MaxSystemV float64 `json:"max_system_v" mapstructure:"max_system_v"`

	// GammaPmax applies to Vmp at heat, BetaVoc to Voc at cold,
	// AlphaIsc to Isc at cold. Whether gamma/alpha are actually
	// applied is a Policy decision.
	GammaPmaxPctPerC float64 `json:"gamma_pmax_pct_per_c" mapstructure:"gamma_pmax_pct_per_c"`
	BetaVocPctPerC   float64 `json:"beta_voc_pct_per_c" mapstructure:"beta_voc_pct_per_c"`
	AlphaIscPctPerC  float64 `json:"alpha_isc_pct_per_c" mapstructure:"alpha_isc_pct_per_c"`
}

// Assumptions are the environmental inputs of a sizing run.
// TCellHot drives the hot-case voltage drop, TAmbMin the cold-case
// voltage rise, HSP is the irradiance proxy in full-sun hours per day
// and PR lumps every system loss into one 0..1 factor.
type Assumptions struct {
	TCellHot float64 `json:"t_cell_hot_c"`
	TAmbMin  float64 `json:"t_amb_min_c"`
	HSP      float64 `json:"hsp"`
	PR       float64 `json:"pr"`
}

// Policy selects which temperature derating model the engine applies.
// The default freezes Vmp and Isc at STC and only cold-derates Voc
// with beta, which is the conservative overvoltage-guard model. The
// gamma/alpha switches restore full three-coefficient derating.
type Policy struct {
	EnableGammaDerating    bool `json:"enable_gamma_derating" mapstructure:"enable_gamma_derating"`
	EnableAlphaDerating    bool `json:"enable_alpha_derating" mapstructure:"enable_alpha_derating"`
	ModuleSystemVoltageCap bool `json:"module_system_voltage_cap" mapstructure:"module_system_voltage_cap"`
}

// DefaultPolicy is beta-only derating with the module's own system
// voltage rating taken into account.
func DefaultPolicy() Policy {
	return Policy{ModuleSystemVoltageCap: true}
}
