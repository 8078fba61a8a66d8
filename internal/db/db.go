// Package db persists analysis runs and their worst-case-scenario results in
// sqlite, and exposes admin debugging routes over the live database.
package db

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/pitchside-data/intensity.report/internal/pipeline"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the sqlite database at path. Schema is
// managed separately through MigrateUp.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// SaveResults records one pipeline run and all of its derived collections in
// a single transaction.
func (db *DB) SaveResults(matchID int, metric string, res *pipeline.Results) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("warning: failed to rollback transaction: %v", err)
		}
	}()

	if _, err := tx.Exec(
		`INSERT INTO analysis_runs (run_id, match_id, metric) VALUES (?, ?, ?)`,
		res.RunID, matchID, metric,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, wr := range res.Windows {
		w := wr.Window
		if _, err := tx.Exec(
			`INSERT INTO wcs_windows (run_id, player_id, duration_s, start_frame, end_frame, mean_intensity)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, w.PlayerID, int64(w.Duration/time.Second), w.StartFrame, w.EndFrame, w.MeanIntensity,
		); err != nil {
			return fmt.Errorf("failed to insert window: %w", err)
		}

		for _, ev := range wr.Preceding {
			if _, err := tx.Exec(
				`INSERT INTO preceding_events (run_id, player_id, duration_s, event_id, frame, event_type, event_subtype)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, w.PlayerID, int64(w.Duration/time.Second), ev.ID, ev.Frame, ev.Type, ev.Subtype,
			); err != nil {
				return fmt.Errorf("failed to insert preceding event: %w", err)
			}
		}
	}

	for _, d := range res.Distances {
		if _, err := tx.Exec(
			`INSERT INTO distance_summaries (run_id, player_id, total_m, high_speed_m, sprint_m)
			 VALUES (?, ?, ?, ?, ?)`,
			res.RunID, d.PlayerID, d.TotalDistance, d.HighSpeedDistance, d.SprintDistance,
		); err != nil {
			return fmt.Errorf("failed to insert distance summary: %w", err)
		}
	}

	return tx.Commit()
}

// WindowRow is a persisted worst-case window.
type WindowRow struct {
	RunID         string  `json:"run_id"`
	PlayerID      int     `json:"player_id"`
	DurationS     int64   `json:"duration_s"`
	StartFrame    int64   `json:"start_frame"`
	EndFrame      int64   `json:"end_frame"`
	MeanIntensity float64 `json:"mean_intensity"`
}

func (w *WindowRow) String() string {
	return fmt.Sprintf("player=%d duration=%ds frames=[%d,%d] intensity=%.2f",
		w.PlayerID, w.DurationS, w.StartFrame, w.EndFrame, w.MeanIntensity)
}

// WindowsForRun returns the persisted windows of a run ordered by player and
// duration.
func (db *DB) WindowsForRun(runID string) ([]WindowRow, error) {
	rows, err := db.Query(
		`SELECT run_id, player_id, duration_s, start_frame, end_frame, mean_intensity
		 FROM wcs_windows WHERE run_id = ? ORDER BY player_id, duration_s`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WindowRow
	for rows.Next() {
		var w WindowRow
		if err := rows.Scan(&w.RunID, &w.PlayerID, &w.DurationS, &w.StartFrame, &w.EndFrame, &w.MeanIntensity); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// MetricForRun returns the intensity metric a run was computed with, or
// sql.ErrNoRows for an unknown run.
func (db *DB) MetricForRun(runID string) (string, error) {
	var metric string
	err := db.QueryRow(
		`SELECT metric FROM analysis_runs WHERE run_id = ?`, runID).Scan(&metric)
	return metric, err
}

// LatestRunID returns the most recent run for a match, or sql.ErrNoRows.
func (db *DB) LatestRunID(matchID int) (string, error) {
	var runID string
	err := db.QueryRow(
		`SELECT run_id FROM analysis_runs WHERE match_id = ? ORDER BY created_at DESC, run_id DESC LIMIT 1`,
		matchID).Scan(&runID)
	return runID, err
}

// EventRow is a persisted preceding event.
type EventRow struct {
	EventID int64  `json:"event_id"`
	Frame   int64  `json:"frame"`
	Type    string `json:"event_type"`
	Subtype string `json:"event_subtype,omitempty"`
}

// PrecedingEventsFor returns the persisted preceding events of one window.
func (db *DB) PrecedingEventsFor(runID string, playerID int, durationS int64) ([]EventRow, error) {
	rows, err := db.Query(
		`SELECT event_id, frame, event_type, COALESCE(event_subtype, '')
		 FROM preceding_events WHERE run_id = ? AND player_id = ? AND duration_s = ?
		 ORDER BY frame, id`, runID, playerID, durationS)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.EventID, &e.Frame, &e.Type, &e.Subtype); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AttachAdminRoutes mounts a tailSQL console and debug handlers on mux for
// live inspection of the analysis database.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://wcs.db", db.DB, &tailsql.DBOptions{
		Label: "WCS Analysis DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
