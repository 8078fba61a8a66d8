package wcs

import (
	"math"
	"time"

	"github.com/pitchside-data/intensity.report/internal/tracking"
)

// Window is the worst-case-scenario result entity: the rolling window of a
// given duration during which the player's mean intensity was highest.
// EndFrame-StartFrame+1 always equals the duration expressed in frames.
type Window struct {
	PlayerID      int           `json:"player_id"`
	Duration      time.Duration `json:"duration"`
	StartFrame    int64         `json:"start_frame"`
	EndFrame      int64         `json:"end_frame"`
	MeanIntensity float64       `json:"mean_intensity"`
	Metric        Metric        `json:"metric"`
}

// FramesForDuration converts a window duration to an integer frame count at
// the given sample rate.
func FramesForDuration(d time.Duration, sampleRate float64) int {
	return int(math.Round(d.Seconds() * sampleRate))
}

// ComputeWindows finds, for each requested duration, the single maximal-mean
// rolling window over the player's series. Windows are only ever placed on
// contiguous segments: a window that would span a data gap is invalid and
// skipped, because worst-case demand cannot be attributed across missing
// frames. Ties on mean intensity go to the earliest start frame.
//
// A duration for which no contiguous segment is long enough simply produces
// no Window. That is a valid empty result, not an error.
func ComputeWindows(ts *tracking.TimeSeries, durations []time.Duration, metric Metric) []Window {
	if ts == nil || len(ts.Samples) == 0 {
		return nil
	}

	values := metricValues(ts, metric)

	// Prefix sums over the whole sample slice; windows are constrained to
	// run boundaries below so sums never straddle a gap.
	prefix := make([]float64, len(values)+1)
	for i, v := range values {
		prefix[i+1] = prefix[i] + v
	}

	runs := ts.Runs()
	out := make([]Window, 0, len(durations))
	for _, d := range durations {
		w := FramesForDuration(d, ts.SampleRate)
		if w < 1 {
			continue
		}

		best := Window{PlayerID: ts.PlayerID, Duration: d, Metric: metric, MeanIntensity: math.Inf(-1)}
		found := false
		for _, run := range runs {
			for start := run.Start; start+w <= run.End; start++ {
				mean := (prefix[start+w] - prefix[start]) / float64(w)
				// Strict comparison keeps the earliest window on ties.
				if mean > best.MeanIntensity {
					best.StartFrame = ts.Samples[start].Frame
					best.EndFrame = ts.Samples[start+w-1].Frame
					best.MeanIntensity = mean
					found = true
				}
			}
		}
		if found {
			out = append(out, best)
		}
	}
	return out
}
