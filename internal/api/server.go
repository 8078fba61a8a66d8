// Package api serves analysis results over HTTP as JSON, with persisted rows
// read from sqlite and per-run views (trajectories, summaries) served from
// the most recent in-memory pipeline run.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pitchside-data/intensity.report/internal/db"
	"github.com/pitchside-data/intensity.report/internal/pipeline"
	"github.com/pitchside-data/intensity.report/internal/report"
	"github.com/pitchside-data/intensity.report/internal/units"
	"github.com/pitchside-data/intensity.report/internal/version"
	"github.com/pitchside-data/intensity.report/internal/wcs"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db      *db.DB
	units   string
	matchID int

	mu          sync.RWMutex
	results     *pipeline.Results
	playerTeams map[int]string
}

func NewServer(db *db.DB, matchID int, units string) *Server {
	return &Server{
		db:      db,
		matchID: matchID,
		units:   units,
	}
}

// SetResults installs the latest pipeline run for the endpoints that serve
// un-persisted views (trajectories, summaries, charts).
func (s *Server) SetResults(res *pipeline.Results, playerTeams map[int]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = res
	s.playerTeams = playerTeams
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/windows", s.listWindows)
	mux.HandleFunc("/api/preceding_events", s.listPrecedingEvents)
	mux.HandleFunc("/api/trajectory", s.showTrajectory)
	mux.HandleFunc("/api/summary", s.showTeamSummary)
	mux.HandleFunc("/api/event_shares", s.showEventShares)
	mux.HandleFunc("/api/chart", s.showChart)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// resolveRunID returns the run_id query parameter, falling back to the latest
// persisted run for the configured match.
func (s *Server) resolveRunID(r *http.Request) (string, error) {
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		return runID, nil
	}
	runID, err := s.db.LatestRunID(s.matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no runs recorded for match %d", s.matchID)
	}
	return runID, err
}

// requestUnits returns the units query parameter, falling back to the
// server's configured units.
func (s *Server) requestUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid units %q; valid units are: %s", u, units.GetValidUnitsString())
	}
	return u, nil
}

func (s *Server) listWindows(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runID, err := s.resolveRunID(r)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	windows, err := s.db.WindowsForRun(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve windows: %v", err))
		return
	}

	// Optional player/duration filters.
	if q := r.URL.Query().Get("player_id"); q != "" {
		playerID, err := strconv.Atoi(q)
		if err != nil || playerID < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'player_id' parameter")
			return
		}
		kept := windows[:0]
		for _, row := range windows {
			if row.PlayerID == playerID {
				kept = append(kept, row)
			}
		}
		windows = kept
	}
	if q := r.URL.Query().Get("duration_s"); q != "" {
		durationS, err := strconv.ParseInt(q, 10, 64)
		if err != nil || durationS < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'duration_s' parameter")
			return
		}
		kept := windows[:0]
		for _, row := range windows {
			if row.DurationS == durationS {
				kept = append(kept, row)
			}
		}
		windows = kept
	}

	// Speed-metric intensities are stored in m/s and convert on the way out,
	// same gate as the summary endpoint. Other metrics already carry their
	// reporting unit.
	metric, err := s.db.MetricForRun(runID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve run metric: %v", err))
		return
	}
	if metric == string(wcs.MetricSpeed) {
		u, err := s.requestUnits(r)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		for i := range windows {
			windows[i].MeanIntensity = units.ConvertSpeed(windows[i].MeanIntensity, u)
		}
	}

	if windows == nil {
		windows = []db.WindowRow{}
	}

	if err := json.NewEncoder(w).Encode(windows); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write windows")
		return
	}
}

func (s *Server) listPrecedingEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	playerID, err := strconv.Atoi(r.URL.Query().Get("player_id"))
	if err != nil || playerID < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'player_id' parameter")
		return
	}
	durationS, err := strconv.ParseInt(r.URL.Query().Get("duration_s"), 10, 64)
	if err != nil || durationS < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'duration_s' parameter")
		return
	}

	runID, err := s.resolveRunID(r)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	evts, err := s.db.PrecedingEventsFor(runID, playerID, durationS)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve preceding events: %v", err))
		return
	}
	if evts == nil {
		evts = []db.EventRow{}
	}

	if err := json.NewEncoder(w).Encode(evts); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write preceding events")
		return
	}
}

func (s *Server) showTrajectory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	playerID, err := strconv.Atoi(r.URL.Query().Get("player_id"))
	if err != nil || playerID < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'player_id' parameter")
		return
	}
	durationS, err := strconv.ParseInt(r.URL.Query().Get("duration_s"), 10, 64)
	if err != nil || durationS < 1 {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'duration_s' parameter")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		s.writeJSONError(w, http.StatusNotFound, "no analysis loaded")
		return
	}

	for _, wr := range s.results.Windows {
		if wr.Window.PlayerID == playerID && wr.Window.Duration == time.Duration(durationS)*time.Second {
			if err := json.NewEncoder(w).Encode(wr.Trajectory); err != nil {
				s.writeJSONError(w, http.StatusInternalServerError, "Failed to write trajectory")
			}
			return
		}
	}
	s.writeJSONError(w, http.StatusNotFound,
		fmt.Sprintf("no window for player %d at %ds", playerID, durationS))
}

func (s *Server) showTeamSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		s.writeJSONError(w, http.StatusNotFound, "no analysis loaded")
		return
	}

	summaries := report.TeamSummaries(s.results.Windows, s.playerTeams)

	// Speed-metric intensities are stored in m/s and convert on the way out.
	// Other metrics already carry their reporting unit.
	if len(s.results.Windows) > 0 && s.results.Windows[0].Window.Metric == wcs.MetricSpeed {
		u, err := s.requestUnits(r)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		summaries, err = report.ConvertSummaries(summaries, u)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if summaries == nil {
		summaries = []report.TeamDurationSummary{}
	}

	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write summary")
		return
	}
}

func (s *Server) showEventShares(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		s.writeJSONError(w, http.StatusNotFound, "no analysis loaded")
		return
	}

	shares := report.EventShares(s.results.Windows)
	if shares == nil {
		shares = []report.EventTypeShare{}
	}

	if err := json.NewEncoder(w).Encode(shares); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write event shares")
		return
	}
}

func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results == nil {
		http.Error(w, "no analysis loaded", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := fmt.Sprintf("Match %d worst-case intensities", s.matchID)
	if err := report.RenderIntensityChart(w, title, s.results.Windows); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"units":    s.units,
		"match_id": s.matchID,
		"version":  version.Version,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
