package tracking

import (
	"math"

	"github.com/pitchside-data/intensity.report/internal/monitoring"
)

// DeriveSpeeds fills in instantaneous speed for samples that lack it, from
// successive positions: step distance over dt, where dt accounts for frame
// jumps within a period. The first sample of each period gets zero speed.
//
// Optical tracking occasionally glitches and teleports a player; any speed
// above maxPlausible (m/s) is treated as such a glitch and zeroed, matching
// how the intensity metric treats unknown demand. Provider-supplied speeds
// are kept but bounded the same way.
func DeriveSpeeds(ts *TimeSeries, maxPlausible float64) []monitoring.Warning {
	var warnings []monitoring.Warning
	for i := range ts.Samples {
		cur := &ts.Samples[i]

		if !cur.HasSpeed() {
			if i == 0 || ts.Samples[i-1].Period != cur.Period {
				cur.Speed = 0
			} else {
				prev := ts.Samples[i-1]
				dt := float64(cur.Frame-prev.Frame) / ts.SampleRate
				if dt <= 0 {
					cur.Speed = 0
					continue
				}
				dx := cur.X - prev.X
				dy := cur.Y - prev.Y
				cur.Speed = math.Sqrt(dx*dx+dy*dy) / dt
			}
		}

		if cur.Speed < 0 || cur.Speed > maxPlausible {
			warnings = append(warnings, monitoring.Warnf(
				monitoring.WarnImplausibleSpeed, ts.PlayerID, cur.Frame,
				"%.2f m/s exceeds bound %.2f, zeroed", cur.Speed, maxPlausible))
			cur.Speed = 0
		}
	}
	return warnings
}
