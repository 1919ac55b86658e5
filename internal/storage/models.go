package storage

import (
	"time"

	"gorm.io/gorm"
)

// SizingRecord is one persisted sizing run: the resolved headline
// inputs and results for quick listing, plus the full report as a
// JSON blob for faithful retrieval.
type SizingRecord struct {
	gorm.Model
	ComputedAt time.Time `gorm:"index" json:"computed_at"`

	// Hardware
	InverterName string `json:"inverter_name"`
	ModuleName   string `json:"module_name"`

	// Target
	TargetKWhMonth float64 `json:"target_kwh_month"`
	TargetWhDay    float64 `json:"target_wh_day"`
	HSP            float64 `json:"hsp"`
	PR             float64 `json:"pr"`

	// Topology
	NSeries   int `json:"n_series"`
	NParallel int `json:"n_parallel"`
	MPPTsUsed int `json:"mppts_used"`

	// Results
	RequiredWp   float64 `json:"required_wp"`
	InstalledWp  float64 `json:"installed_wp"`
	ProdKWhDay   float64 `json:"prod_kwh_day"`
	CoveragePct  float64 `json:"coverage_pct"`
	IsCompatible bool    `json:"is_compatible"`
	PlanLeftover int     `json:"plan_leftover"`

	ReportJSON string `json:"report_json"`
}

// HistoryStats summarizes the persisted runs.
type HistoryStats struct {
	Runs            int64   `json:"runs"`
	CompatibleRuns  int64   `json:"compatible_runs"`
	AvgCoveragePct  float64 `json:"avg_coverage_pct"`
	BestCoveragePct float64 `json:"best_coverage_pct"`
}
