// Package trajectory extracts the exact movement sequence covered by a
// worst-case-scenario window for downstream rendering.
package trajectory

import (
	"fmt"

	"github.com/pitchside-data/intensity.report/internal/monitoring"
	"github.com/pitchside-data/intensity.report/internal/tracking"
	"github.com/pitchside-data/intensity.report/internal/wcs"
)

// Slice is the ordered positional samples spanning one window, inclusive of
// both endpoints. It is a computed view: recomputed per invocation, never
// mutated.
type Slice struct {
	Window  wcs.Window             `json:"window"`
	Samples []tracking.FrameSample `json:"samples"`
}

// InconsistentWindowError means a window was reconstructed against a series
// it was not computed from. That is a caller contract violation, not a data
// condition, so it aborts the computation.
type InconsistentWindowError struct {
	Window   wcs.Window
	SeriesID int
}

func (e *InconsistentWindowError) Error() string {
	return fmt.Sprintf("window [%d,%d] for player %d does not correspond to series of player %d",
		e.Window.StartFrame, e.Window.EndFrame, e.Window.PlayerID, e.SeriesID)
}

// Reconstruct extracts all samples with StartFrame <= frame <= EndFrame. An
// empty extraction fails with InconsistentWindowError. A slice shorter than
// the window's frame span should not happen given gap-aware window selection,
// but is checked defensively and surfaced as a partial-slice warning with the
// partial data returned.
func Reconstruct(ts *tracking.TimeSeries, window wcs.Window) (Slice, []monitoring.Warning, error) {
	if ts == nil || ts.PlayerID != window.PlayerID {
		id := -1
		if ts != nil {
			id = ts.PlayerID
		}
		return Slice{}, nil, &InconsistentWindowError{Window: window, SeriesID: id}
	}

	slice := Slice{Window: window}
	for _, s := range ts.Samples {
		if s.Frame >= window.StartFrame && s.Frame <= window.EndFrame {
			slice.Samples = append(slice.Samples, s)
		}
	}

	if len(slice.Samples) == 0 {
		return Slice{}, nil, &InconsistentWindowError{Window: window, SeriesID: ts.PlayerID}
	}

	var warnings []monitoring.Warning
	expected := int(window.EndFrame - window.StartFrame + 1)
	if len(slice.Samples) < expected {
		warnings = append(warnings, monitoring.Warnf(
			monitoring.WarnPartialSlice, window.PlayerID, window.StartFrame,
			"got %d of %d samples", len(slice.Samples), expected))
	}

	return slice, warnings, nil
}
