// Package events maps discrete match events onto the tracking frame axis and
// selects the events that precede a worst-case-scenario window.
package events

import (
	"sort"
	"time"

	"github.com/pitchside-data/intensity.report/internal/wcs"
)

// Record is one discrete in-game occurrence tied to a player and a frame.
// Input order is arbitrary; alignment sorts by frame as needed.
type Record struct {
	ID       int64             `json:"event_id"`
	PlayerID int               `json:"player_id"`
	Frame    int64             `json:"frame"`
	Type     string            `json:"event_type"`
	Subtype  string            `json:"event_subtype,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Preceding selects the events for the window's player that fall in the
// lookback interval immediately before the window: frames in
// [start-lookbackFrames, start), half-open so the window's own start frame is
// excluded. The lower bound clamps at zero for windows early in the match.
// The result is sorted ascending by frame; equal frames keep input order.
func Preceding(records []Record, window wcs.Window, lookback time.Duration, sampleRate float64) []Record {
	lookbackFrames := int64(wcs.FramesForDuration(lookback, sampleRate))
	low := window.StartFrame - lookbackFrames
	if low < 0 {
		low = 0
	}

	var out []Record
	for _, r := range records {
		if r.PlayerID != window.PlayerID {
			continue
		}
		if r.Frame >= low && r.Frame < window.StartFrame {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Frame < out[j].Frame })
	return out
}

// Nearest returns the single event for the window's player closest to the
// window's start frame, in either direction. When toleranceFrames is
// non-negative, events farther than that many frames are discarded. The
// boolean is false when no event qualifies; absence is a plain empty result.
func Nearest(records []Record, window wcs.Window, toleranceFrames int64) (Record, bool) {
	var best Record
	bestDist := int64(-1)
	for _, r := range records {
		if r.PlayerID != window.PlayerID {
			continue
		}
		dist := r.Frame - window.StartFrame
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = r, dist
		}
	}
	if bestDist < 0 {
		return Record{}, false
	}
	if toleranceFrames >= 0 && bestDist > toleranceFrames {
		return Record{}, false
	}
	return best, true
}
