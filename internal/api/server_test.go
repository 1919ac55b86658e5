package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pv-sizer/config"
	"pv-sizer/internal/sizing"
	"pv-sizer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := storage.NewDatabase("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewServer(ServerConfig{
		Port:     0,
		Database: db,
		Engine: config.EngineConfig{
			HSP:        sizing.DefaultHSP,
			PR:         sizing.DefaultPR,
			TAmbMin:    sizing.DefaultTAmbMin,
			TCellHot:   sizing.DefaultTCellHot,
			Days:       sizing.DefaultDaysPerMonth,
			DCACTarget: sizing.DefaultDCACTarget,
			Policy:     sizing.DefaultPolicy(),
		},
	})
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestReportEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/v1/report", sizing.Request{
		KWhMonth:       115,
		InverterPreset: "aeg4200",
		ModulePreset:   "era450",
		AutoSeries:     true,
		MPPTsUsed:      2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep sizing.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))

	assert.Equal(t, 2, rep.Inputs.NSeries)
	assert.True(t, rep.StringCheck.IsCompatible)
	assert.InDelta(t, 1197.9, float64(rep.RequiredWp), 0.1)
	assert.InDelta(t, 1800.0, rep.Totals.TotalWp, 1e-9)

	// The run must be persisted.
	record, err := s.db.GetLatestRecord()
	require.NoError(t, err)
	assert.InDelta(t, 1800.0, record.InstalledWp, 1e-9)
}

func TestReportEndpointValidation(t *testing.T) {
	s := newTestServer(t)

	// No preset and no module ratings: the engine must refuse.
	w := postJSON(t, s, "/api/v1/report", sizing.Request{KWhMonth: 115})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "module parameters missing")
}

func TestReportEndpointBadJSON(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/report", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpointCSV(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/v1/report/export?format=csv", sizing.Request{
		KWhMonth:       115,
		InverterPreset: "aeg4200",
		ModulePreset:   "era450",
		NSeries:        2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sizing_report.csv")
	assert.Contains(t, w.Body.String(), "Field,Value")
}

func TestExportEndpointUnknownFormat(t *testing.T) {
	s := newTestServer(t)

	w := postJSON(t, s, "/api/v1/report/export?format=xml", sizing.Request{
		ModulePreset: "era450",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown format")
}

func TestPresetsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "aeg4200")
	assert.Contains(t, w.Body.String(), "era450")
}

func TestLiveEndpointWithoutMonitor(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/live", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServerDefaultsApplied(t *testing.T) {
	s := newTestServer(t)
	s.engine.HSP = 5.0

	w := postJSON(t, s, "/api/v1/report", sizing.Request{
		KWhMonth:     115,
		ModulePreset: "era450",
		NSeries:      2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep sizing.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.InDelta(t, 5.0, rep.Inputs.HSP, 1e-9)
}
