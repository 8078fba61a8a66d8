package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside-data/intensity.report/internal/db"
	"github.com/pitchside-data/intensity.report/internal/events"
	"github.com/pitchside-data/intensity.report/internal/pipeline"
	"github.com/pitchside-data/intensity.report/internal/report"
	"github.com/pitchside-data/intensity.report/internal/tracking"
	"github.com/pitchside-data/intensity.report/internal/trajectory"
	"github.com/pitchside-data/intensity.report/internal/units"
	"github.com/pitchside-data/intensity.report/internal/wcs"
)

const testMatchID = 4039

func testResults() *pipeline.Results {
	samples := make([]tracking.FrameSample, 30)
	for i := range samples {
		samples[i] = tracking.FrameSample{
			PlayerID: 7, Period: 1, Frame: int64(100 + i),
			X: float64(i), Y: 1.5, Speed: 6.0,
		}
	}
	w := wcs.Window{
		PlayerID: 7, Duration: 60 * time.Second,
		StartFrame: 100, EndFrame: 699,
		MeanIntensity: 112.5, Metric: wcs.MetricMetersPerMinute,
	}
	return &pipeline.Results{
		RunID: "run-api-test",
		Windows: []pipeline.WindowResult{
			{
				Window: w,
				Preceding: []events.Record{
					{ID: 11, PlayerID: 7, Frame: 40, Type: "pass"},
				},
				Trajectory: trajectory.Slice{Window: w, Samples: samples},
			},
		},
		Distances: []wcs.DistanceSummary{
			{PlayerID: 7, TotalDistance: 10432.2},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "api-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	dir, err := db.FindMigrationsDir()
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(dir))

	res := testResults()
	require.NoError(t, database.SaveResults(testMatchID, "m_per_min", res))

	srv := NewServer(database, testMatchID, units.MPERMIN)
	srv.SetResults(res, map[int]string{7: "Home FC"})
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestListWindows(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/windows")
	require.Equal(t, http.StatusOK, rec.Code)

	var windows []db.WindowRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, 7, windows[0].PlayerID)
	assert.Equal(t, int64(60), windows[0].DurationS)
	assert.InDelta(t, 112.5, windows[0].MeanIntensity, 1e-9)
}

func TestListWindowsExplicitRun(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/windows?run_id=run-api-test")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?run_id=no-such-run")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListWindowsFilters(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/windows?player_id=7")
	require.Equal(t, http.StatusOK, rec.Code)
	var windows []db.WindowRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, 7, windows[0].PlayerID)

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?player_id=99")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?duration_s=60")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, int64(60), windows[0].DurationS)

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?duration_s=120")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?player_id=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?duration_s=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListWindowsUnitConversion(t *testing.T) {
	srv := newTestServer(t)

	speedRun := testResults()
	speedRun.RunID = "run-speed"
	for i := range speedRun.Windows {
		speedRun.Windows[i].Window.Metric = wcs.MetricSpeed
		speedRun.Windows[i].Window.MeanIntensity = 2.0
	}
	require.NoError(t, srv.db.SaveResults(testMatchID, string(wcs.MetricSpeed), speedRun))

	rec := doRequest(t, srv, http.MethodGet, "/api/windows?run_id=run-speed&units=kmph")
	require.Equal(t, http.StatusOK, rec.Code)
	var windows []db.WindowRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	require.Len(t, windows, 1)
	assert.InDelta(t, 7.2, windows[0].MeanIntensity, 1e-9)

	// No units parameter falls back to the server's configured units.
	rec = doRequest(t, srv, http.MethodGet, "/api/windows?run_id=run-speed")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	assert.InDelta(t, 120.0, windows[0].MeanIntensity, 1e-9, "2 m/s in m/min")

	rec = doRequest(t, srv, http.MethodGet, "/api/windows?run_id=run-speed&units=furlongs")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-speed metrics already carry their reporting unit and are served
	// as stored regardless of the units parameter.
	rec = doRequest(t, srv, http.MethodGet, "/api/windows?run_id=run-api-test&units=kmph")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &windows))
	require.Len(t, windows, 1)
	assert.InDelta(t, 112.5, windows[0].MeanIntensity, 1e-9)
}

func TestListWindowsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/windows")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListPrecedingEvents(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/preceding_events?player_id=7&duration_s=60")
	require.Equal(t, http.StatusOK, rec.Code)

	var evts []db.EventRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evts))
	require.Len(t, evts, 1)
	assert.Equal(t, "pass", evts[0].Type)
	assert.Equal(t, int64(40), evts[0].Frame)
}

func TestListPrecedingEventsBadParams(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/preceding_events?player_id=x&duration_s=60")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/preceding_events?player_id=7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShowTrajectory(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/trajectory?player_id=7&duration_s=60")
	require.Equal(t, http.StatusOK, rec.Code)

	var slice trajectory.Slice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slice))
	assert.Equal(t, 7, slice.Window.PlayerID)
	assert.Len(t, slice.Samples, 30)

	rec = doRequest(t, srv, http.MethodGet, "/api/trajectory?player_id=99&duration_s=60")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShowTeamSummary(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []report.TeamDurationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Home FC", summaries[0].Team)
	assert.InDelta(t, 112.5, summaries[0].Mean, 1e-9)
}

func TestShowEventShares(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/event_shares")
	require.Equal(t, http.StatusOK, rec.Code)

	var shares []report.EventTypeShare
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shares))
	require.Len(t, shares, 1)
	assert.Equal(t, "pass", shares[0].Type)
	assert.InDelta(t, 100.0, shares[0].Percent, 1e-9)
}

func TestShowChart(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Match 4039 worst-case intensities")
}

func TestShowConfig(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/config")
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, units.MPERMIN, cfg["units"])
	assert.EqualValues(t, testMatchID, cfg["match_id"])
}

func TestNoAnalysisLoaded(t *testing.T) {
	database, err := db.NewDB(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	dir, err := db.FindMigrationsDir()
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(dir))

	srv := NewServer(database, testMatchID, units.MPERMIN)

	rec := doRequest(t, srv, http.MethodGet, "/api/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/windows")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no runs persisted for match")
}

func TestStatusCodeColor(t *testing.T) {
	assert.Contains(t, statusCodeColor(200), "200")
	assert.Contains(t, statusCodeColor(404), "404")
	assert.Contains(t, statusCodeColor(500), "500")
	assert.Equal(t, "100", statusCodeColor(100))
}
