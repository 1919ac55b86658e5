package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"pv-sizer/internal/sizing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&SizingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// SaveReport persists one computed report as a history record.
func (d *Database) SaveReport(rep *sizing.Report) (*SizingRecord, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	requiredWp := float64(rep.RequiredWp)
	if math.IsNaN(requiredWp) {
		requiredWp = 0
	}

	rec := &SizingRecord{
		ComputedAt:     time.Now(),
		InverterName:   rep.Inputs.Inverter.Name,
		ModuleName:     rep.Inputs.Module.Name,
		TargetKWhMonth: rep.Inputs.KWhMonth,
		TargetWhDay:    rep.Inputs.WhDay,
		HSP:            rep.Inputs.HSP,
		PR:             rep.Inputs.PR,
		NSeries:        rep.Inputs.NSeries,
		NParallel:      rep.Inputs.NParallel,
		MPPTsUsed:      rep.Inputs.MPPTsUsed,
		RequiredWp:     requiredWp,
		InstalledWp:    rep.Totals.TotalWp,
		ProdKWhDay:     rep.Totals.ProdKWhDay,
		CoveragePct:    rep.Totals.CoveragePct,
		IsCompatible:   rep.StringCheck.IsCompatible,
		ReportJSON:     string(raw),
	}
	if rep.Plan != nil {
		rec.PlanLeftover = rep.Plan.Leftover
	}

	if err := d.db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	return rec, nil
}

func (d *Database) GetLatestRecord() (*SizingRecord, error) {
	var rec SizingRecord
	result := d.db.Order("computed_at desc").First(&rec)
	if result.Error != nil {
		return nil, result.Error
	}
	return &rec, nil
}

func (d *Database) GetRecordsWithLimit(limit int) ([]SizingRecord, error) {
	var recs []SizingRecord
	result := d.db.Order("computed_at desc").Limit(limit).Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	return recs, nil
}

func (d *Database) GetRecordsByRange(from, to time.Time) ([]SizingRecord, error) {
	var recs []SizingRecord
	result := d.db.Where("computed_at BETWEEN ? AND ?", from, to).
		Order("computed_at desc").
		Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	return recs, nil
}

// GetReport decodes the full report stored with a record.
func (d *Database) GetReport(id uint) (*sizing.Report, error) {
	var rec SizingRecord
	if err := d.db.First(&rec, id).Error; err != nil {
		return nil, err
	}

	var rep sizing.Report
	if err := json.Unmarshal([]byte(rec.ReportJSON), &rep); err != nil {
		return nil, fmt.Errorf("failed to decode stored report %d: %w", id, err)
	}
	return &rep, nil
}

func (d *Database) GetStats() (*HistoryStats, error) {
	var stats HistoryStats

	if err := d.db.Model(&SizingRecord{}).Count(&stats.Runs).Error; err != nil {
		return nil, err
	}
	d.db.Model(&SizingRecord{}).Where("is_compatible = ?", true).Count(&stats.CompatibleRuns)

	if stats.Runs > 0 {
		d.db.Model(&SizingRecord{}).Select("AVG(coverage_pct)").Scan(&stats.AvgCoveragePct)
		d.db.Model(&SizingRecord{}).Select("MAX(coverage_pct)").Scan(&stats.BestCoveragePct)
	}
	return &stats, nil
}

func (d *Database) CleanOldRecords(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return d.db.Where("computed_at < ?", cutoff).Delete(&SizingRecord{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
