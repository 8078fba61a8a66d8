package wcs

import (
	"math"

	"github.com/pitchside-data/intensity.report/internal/tracking"
)

// DistanceSummary aggregates a player's whole-match distance output into the
// conventional speed bands.
type DistanceSummary struct {
	PlayerID          int     `json:"player_id"`
	TotalDistance     float64 `json:"total_distance_m"`
	HighSpeedDistance float64 `json:"high_speed_distance_m"`
	SprintDistance    float64 `json:"sprint_distance_m"`
}

// Distances sums step distances over the whole series. Steps are taken from
// successive positions within a period; the band a step falls in is decided
// by the sample's (already bounded) speed, so glitch frames contribute to
// total distance but never to the high-speed or sprint bands.
func Distances(ts *tracking.TimeSeries, hsrThreshold, sprintThreshold float64) DistanceSummary {
	sum := DistanceSummary{PlayerID: ts.PlayerID}
	for i := 1; i < len(ts.Samples); i++ {
		prev, cur := ts.Samples[i-1], ts.Samples[i]
		if cur.Period != prev.Period {
			continue
		}
		dx := cur.X - prev.X
		dy := cur.Y - prev.Y
		step := math.Sqrt(dx*dx + dy*dy)

		sum.TotalDistance += step
		if cur.Speed > hsrThreshold {
			sum.HighSpeedDistance += step
		}
		if cur.Speed > sprintThreshold {
			sum.SprintDistance += step
		}
	}
	return sum
}
