// Package tracking normalises raw per-frame optical tracking samples into
// player-keyed, time-indexed series. It is the only place that knows how to
// turn frame numbers into wall-clock offsets and where data gaps live.
package tracking

import (
	"fmt"
	"math"
	"time"
)

// FrameSample is one instant of one player's state. Frames are integers at a
// fixed nominal sample rate per match; a sample is immutable once ingested.
// Speed is in m/s and may be NaN when the provider does not supply it (see
// DeriveSpeeds).
type FrameSample struct {
	PlayerID int     `json:"player_id"`
	Period   int     `json:"period"`
	Frame    int64   `json:"frame"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Speed    float64 `json:"speed"`
}

// HasSpeed reports whether the sample carries a usable speed value.
func (s FrameSample) HasSpeed() bool {
	return !math.IsNaN(s.Speed)
}

// TimeSeries is the ordered per-player series produced by Index. Samples are
// sorted by (period, frame) with no duplicate frame numbers. Gaps are left
// explicit: missing frames are simply absent, never interpolated.
type TimeSeries struct {
	PlayerID   int
	SampleRate float64 // frames per second
	Samples    []FrameSample
}

// Elapsed converts a frame number to the wall-clock offset from frame zero.
func (ts *TimeSeries) Elapsed(frame int64) time.Duration {
	return time.Duration(float64(frame) / ts.SampleRate * float64(time.Second))
}

// Run is a half-open index range [Start, End) of Samples whose frame numbers
// are consecutive and belong to the same period.
type Run struct {
	Start int
	End   int
}

// Len returns the number of samples in the run.
func (r Run) Len() int { return r.End - r.Start }

// Runs splits the series into maximal contiguous segments. A period change or
// a frame jump greater than one starts a new run.
func (ts *TimeSeries) Runs() []Run {
	if len(ts.Samples) == 0 {
		return nil
	}
	runs := make([]Run, 0, 4)
	start := 0
	for i := 1; i < len(ts.Samples); i++ {
		prev, cur := ts.Samples[i-1], ts.Samples[i]
		if cur.Period != prev.Period || cur.Frame != prev.Frame+1 {
			runs = append(runs, Run{Start: start, End: i})
			start = i
		}
	}
	return append(runs, Run{Start: start, End: len(ts.Samples)})
}

// SampleAt returns the index of the sample with the given frame number, or -1.
func (ts *TimeSeries) SampleAt(frame int64) int {
	// Samples are sorted by (period, frame) but frames are globally
	// monotonic in SkillCorner data, so binary search on frame is safe.
	lo, hi := 0, len(ts.Samples)
	for lo < hi {
		mid := (lo + hi) / 2
		if ts.Samples[mid].Frame < frame {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(ts.Samples) && ts.Samples[lo].Frame == frame {
		return lo
	}
	return -1
}

// MalformedSampleError reports a raw record that could not be ingested.
// Ingestion of other records continues; the error is carried in a warning.
type MalformedSampleError struct {
	Reason string
	Sample FrameSample
}

func (e *MalformedSampleError) Error() string {
	return fmt.Sprintf("malformed sample (player=%d frame=%d): %s",
		e.Sample.PlayerID, e.Sample.Frame, e.Reason)
}
