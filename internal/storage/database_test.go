package storage

import (
	"testing"
	"time"

	"pv-sizer/internal/sizing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func computeTestReport(t *testing.T, kwhMonth float64) *sizing.Report {
	t.Helper()
	rep, err := sizing.ComputeReport(sizing.Request{
		KWhMonth:       kwhMonth,
		InverterPreset: "aeg4200",
		ModulePreset:   "era450",
		AutoSeries:     true,
	})
	require.NoError(t, err)
	return rep
}

func TestSaveAndRetrieveReport(t *testing.T) {
	db := openTestDB(t)

	rec, err := db.SaveReport(computeTestReport(t, 115))
	require.NoError(t, err)
	require.NotZero(t, rec.ID)
	assert.Equal(t, "ERA 450 W 24 V", rec.ModuleName)
	assert.Equal(t, 2, rec.NSeries)
	assert.True(t, rec.IsCompatible)
	assert.InDelta(t, 900, rec.InstalledWp, 1e-9)

	latest, err := db.GetLatestRecord()
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)

	rep, err := db.GetReport(rec.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.88, rep.Totals.ProdKWhDay, 1e-9)
	require.NotNil(t, rep.Plan)
	assert.Equal(t, []int{1, 1}, rep.Plan.Distribution)
}

func TestGetRecordsWithLimit(t *testing.T) {
	db := openTestDB(t)

	for _, kwh := range []float64{60, 115, 230} {
		_, err := db.SaveReport(computeTestReport(t, kwh))
		require.NoError(t, err)
	}

	recs, err := db.GetRecordsWithLimit(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	all, err := db.GetRecordsWithLimit(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	_, err := db.SaveReport(computeTestReport(t, 60))
	require.NoError(t, err)
	_, err = db.SaveReport(computeTestReport(t, 115))
	require.NoError(t, err)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Runs)
	assert.EqualValues(t, 2, stats.CompatibleRuns)
	assert.Greater(t, stats.BestCoveragePct, stats.AvgCoveragePct*0.99)
}

func TestCleanOldRecords(t *testing.T) {
	db := openTestDB(t)

	_, err := db.SaveReport(computeTestReport(t, 115))
	require.NoError(t, err)

	require.NoError(t, db.CleanOldRecords(time.Hour))
	recs, err := db.GetRecordsWithLimit(10)
	require.NoError(t, err)
	assert.Len(t, recs, 1, "fresh records survive the cutoff")
}
