// Package pipeline orchestrates the full worst-case-scenario analysis for one
// match: index raw frames, fan out the rolling-intensity computation, then
// attach preceding events and reconstructed trajectories to every window.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pitchside-data/intensity.report/internal/config"
	"github.com/pitchside-data/intensity.report/internal/events"
	"github.com/pitchside-data/intensity.report/internal/monitoring"
	"github.com/pitchside-data/intensity.report/internal/tracking"
	"github.com/pitchside-data/intensity.report/internal/trajectory"
	"github.com/pitchside-data/intensity.report/internal/wcs"
)

// WindowResult bundles one worst-case window with its derived views.
type WindowResult struct {
	Window     wcs.Window       `json:"window"`
	Preceding  []events.Record  `json:"preceding_events"`
	Nearest    *events.Record   `json:"nearest_event,omitempty"`
	Trajectory trajectory.Slice `json:"trajectory"`
}

// Results is the output of one pipeline run. Apart from RunID, two runs over
// identical input produce identical Results.
type Results struct {
	RunID     string                `json:"run_id"`
	Windows   []WindowResult        `json:"windows"`
	Distances []wcs.DistanceSummary `json:"distances"`
	Warnings  []monitoring.Warning  `json:"warnings,omitempty"`
}

// Engine runs the batch analysis. It holds configuration only; all state
// lives in the inputs and outputs of Run.
type Engine struct {
	cfg *config.TuningConfig
}

// New creates an Engine with the given tuning. A nil config uses defaults.
func New(cfg *config.TuningConfig) *Engine {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Engine{cfg: cfg}
}

// Run executes the full pipeline over one match worth of frames and events.
// All stages are pure transforms over immutable inputs; malformed records are
// skipped with warnings and never abort the batch.
func (e *Engine) Run(ctx context.Context, frames []tracking.FrameSample, records []events.Record) (*Results, error) {
	metric, err := wcs.ParseMetric(e.cfg.GetIntensityMetric())
	if err != nil {
		return nil, err
	}

	series, warnings, err := tracking.Index(frames, e.cfg.GetSampleRate())
	if err != nil {
		return nil, fmt.Errorf("indexing failed: %w", err)
	}

	// Deterministic player order keeps warning sequences reproducible.
	players := make([]int, 0, len(series))
	for id := range series {
		players = append(players, id)
	}
	sort.Ints(players)

	for _, id := range players {
		warnings = append(warnings, tracking.DeriveSpeeds(series[id], e.cfg.GetMaxPlausibleSpeed())...)
	}

	windows := wcs.ComputeAll(ctx, series, e.cfg.GetWindowDurations(), metric, e.cfg.GetWorkerCount())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := &Results{RunID: uuid.NewString()}
	for _, w := range windows {
		slice, sliceWarnings, err := trajectory.Reconstruct(series[w.PlayerID], w)
		if err != nil {
			// The window came out of the same series map, so this is a bug,
			// not a data condition.
			return nil, fmt.Errorf("trajectory reconstruction failed: %w", err)
		}
		warnings = append(warnings, sliceWarnings...)

		wr := WindowResult{
			Window:     w,
			Preceding:  events.Preceding(records, w, e.cfg.GetLookbackDuration(), e.cfg.GetSampleRate()),
			Trajectory: slice,
		}
		if nearest, ok := events.Nearest(records, w, e.cfg.GetEventToleranceFrames()); ok {
			wr.Nearest = &nearest
		}
		results.Windows = append(results.Windows, wr)
	}

	for _, id := range players {
		results.Distances = append(results.Distances,
			wcs.Distances(series[id], e.cfg.GetHSRThreshold(), e.cfg.GetSprintThreshold()))
	}

	results.Warnings = warnings
	return results, nil
}
