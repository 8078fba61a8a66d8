package tracking

import (
	"fmt"
	"math"
	"sort"

	"github.com/pitchside-data/intensity.report/internal/monitoring"
)

// validateSample checks the fields present on a raw record. A nil return
// means the record is ingestible.
func validateSample(s FrameSample) *MalformedSampleError {
	switch {
	case s.PlayerID <= 0:
		return &MalformedSampleError{Reason: "missing or non-positive player id", Sample: s}
	case s.Frame < 0:
		return &MalformedSampleError{Reason: "negative frame number", Sample: s}
	case s.Period <= 0:
		return &MalformedSampleError{Reason: "missing period", Sample: s}
	case math.IsNaN(s.X) || math.IsNaN(s.Y) || math.IsInf(s.X, 0) || math.IsInf(s.Y, 0):
		return &MalformedSampleError{Reason: "position is not a finite number", Sample: s}
	}
	return nil
}

// Index groups raw samples by player, sorts each group by (period, frame) and
// collapses duplicate frame numbers keeping the first occurrence. Malformed
// records are skipped with a warning; they never abort the batch. The only
// hard failure is an unusable sample rate.
func Index(raw []FrameSample, sampleRate float64) (map[int]*TimeSeries, []monitoring.Warning, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return nil, nil, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}

	var warnings []monitoring.Warning
	grouped := make(map[int][]FrameSample)
	for _, s := range raw {
		if err := validateSample(s); err != nil {
			warnings = append(warnings, monitoring.Warnf(
				monitoring.WarnMalformedSample, s.PlayerID, s.Frame, "%s", err.Reason))
			continue
		}
		grouped[s.PlayerID] = append(grouped[s.PlayerID], s)
	}

	out := make(map[int]*TimeSeries, len(grouped))
	for playerID, samples := range grouped {
		sort.SliceStable(samples, func(i, j int) bool {
			if samples[i].Period != samples[j].Period {
				return samples[i].Period < samples[j].Period
			}
			return samples[i].Frame < samples[j].Frame
		})

		deduped := samples[:0]
		for i, s := range samples {
			if i > 0 && s.Frame == samples[i-1].Frame && s.Period == samples[i-1].Period {
				warnings = append(warnings, monitoring.Warnf(
					monitoring.WarnDuplicateFrame, playerID, s.Frame, "kept first occurrence"))
				continue
			}
			deduped = append(deduped, s)
		}

		ts := &TimeSeries{PlayerID: playerID, SampleRate: sampleRate, Samples: deduped}

		// Gaps are not an error, but they matter downstream: a window must
		// never be attributed across missing data. Surface each one.
		for i := 1; i < len(ts.Samples); i++ {
			prev, cur := ts.Samples[i-1], ts.Samples[i]
			if cur.Period == prev.Period && cur.Frame > prev.Frame+1 {
				warnings = append(warnings, monitoring.Warnf(
					monitoring.WarnGapDetected, playerID, prev.Frame,
					"%d frames missing before frame %d", cur.Frame-prev.Frame-1, cur.Frame))
			}
		}

		out[playerID] = ts
	}

	return out, warnings, nil
}
