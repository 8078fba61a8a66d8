package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside-data/intensity.report/internal/events"
	"github.com/pitchside-data/intensity.report/internal/pipeline"
	"github.com/pitchside-data/intensity.report/internal/wcs"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(dbPath)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { db.Close() })

	dir, err := FindMigrationsDir()
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(dir), "failed to migrate test database")

	return db
}

func sampleResults(runID string) *pipeline.Results {
	return &pipeline.Results{
		RunID: runID,
		Windows: []pipeline.WindowResult{
			{
				Window: wcs.Window{
					PlayerID:      7,
					Duration:      60 * time.Second,
					StartFrame:    100,
					EndFrame:      699,
					MeanIntensity: 112.5,
					Metric:        wcs.MetricMetersPerMinute,
				},
				Preceding: []events.Record{
					{ID: 11, PlayerID: 7, Frame: 40, Type: "pass", Subtype: "cross"},
					{ID: 12, PlayerID: 7, Frame: 95, Type: "carry"},
				},
			},
			{
				Window: wcs.Window{
					PlayerID:      9,
					Duration:      60 * time.Second,
					StartFrame:    250,
					EndFrame:      849,
					MeanIntensity: 104.1,
					Metric:        wcs.MetricMetersPerMinute,
				},
			},
		},
		Distances: []wcs.DistanceSummary{
			{PlayerID: 7, TotalDistance: 10432.2, HighSpeedDistance: 612.8, SprintDistance: 188.4},
			{PlayerID: 9, TotalDistance: 9811.0, HighSpeedDistance: 540.1, SprintDistance: 95.7},
		},
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	dir, err := FindMigrationsDir()
	require.NoError(t, err)
	assert.NoError(t, db.MigrateUp(dir), "second MigrateUp should be a no-op")

	version, dirty, err := db.MigrateVersion(dir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestMigrateDownRollsBackSchema(t *testing.T) {
	db := newTestDB(t)

	dir, err := FindMigrationsDir()
	require.NoError(t, err)
	require.NoError(t, db.MigrateDown(dir))

	version, dirty, err := db.MigrateVersion(dir)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(0), version, "all migrations rolled back")

	_, err = db.Exec(`INSERT INTO analysis_runs (run_id, match_id, metric) VALUES ('x', 1, 'speed')`)
	assert.Error(t, err, "tables dropped by the down migration")

	// Up after down restores a usable schema.
	require.NoError(t, db.MigrateUp(dir))
	require.NoError(t, db.SaveResults(1, "speed", sampleResults("run-after-down")))
}

func TestSaveResultsRoundTrip(t *testing.T) {
	db := newTestDB(t)

	res := sampleResults("run-abc")
	require.NoError(t, db.SaveResults(4039, "m_per_min", res))

	windows, err := db.WindowsForRun("run-abc")
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, 7, windows[0].PlayerID)
	assert.Equal(t, int64(60), windows[0].DurationS)
	assert.Equal(t, int64(100), windows[0].StartFrame)
	assert.Equal(t, int64(699), windows[0].EndFrame)
	assert.InDelta(t, 112.5, windows[0].MeanIntensity, 1e-9)
	assert.Equal(t, 9, windows[1].PlayerID)

	evts, err := db.PrecedingEventsFor("run-abc", 7, 60)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, int64(11), evts[0].EventID)
	assert.Equal(t, "pass", evts[0].Type)
	assert.Equal(t, "cross", evts[0].Subtype)
	assert.Equal(t, "carry", evts[1].Type)
	assert.Empty(t, evts[1].Subtype)

	evts, err = db.PrecedingEventsFor("run-abc", 9, 60)
	require.NoError(t, err)
	assert.Empty(t, evts, "player 9 window had no preceding events")
}

func TestSaveResultsRejectsDuplicateRun(t *testing.T) {
	db := newTestDB(t)

	res := sampleResults("run-dup")
	require.NoError(t, db.SaveResults(1, "speed", res))
	assert.Error(t, db.SaveResults(1, "speed", res), "run_id is unique")
}

func TestLatestRunID(t *testing.T) {
	db := newTestDB(t)

	_, err := db.LatestRunID(77)
	assert.ErrorIs(t, err, sql.ErrNoRows, "no runs recorded yet")

	require.NoError(t, db.SaveResults(77, "speed", sampleResults("run-one")))
	require.NoError(t, db.SaveResults(77, "speed", sampleResults("run-two")))
	require.NoError(t, db.SaveResults(78, "speed", sampleResults("run-other-match")))

	runID, err := db.LatestRunID(77)
	require.NoError(t, err)
	// Both runs land in the same created_at second; run_id breaks the tie.
	assert.Equal(t, "run-two", runID)
}

func TestWindowsForUnknownRunIsEmpty(t *testing.T) {
	db := newTestDB(t)

	windows, err := db.WindowsForRun("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestWindowRowString(t *testing.T) {
	w := WindowRow{PlayerID: 7, DurationS: 60, StartFrame: 100, EndFrame: 699, MeanIntensity: 112.5}
	assert.Equal(t, "player=7 duration=60s frames=[100,699] intensity=112.50", w.String())
}
