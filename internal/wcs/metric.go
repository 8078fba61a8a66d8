// Package wcs computes worst-case-scenario running-intensity windows: for
// each player and each configured window duration, the rolling window of
// maximum mean locomotor intensity across the match.
package wcs

import (
	"fmt"
	"math"

	"github.com/pitchside-data/intensity.report/internal/tracking"
)

// Metric selects the per-frame quantity averaged over a rolling window.
type Metric string

const (
	// MetricSpeed averages instantaneous speed in m/s.
	MetricSpeed Metric = "speed"

	// MetricMetersPerMinute averages speed expressed as metres per minute,
	// the conventional unit for peak locomotor demand.
	MetricMetersPerMinute Metric = "m_per_min"

	// MetricAcceleration averages the magnitude of frame-to-frame
	// acceleration in m/s².
	MetricAcceleration Metric = "acceleration"
)

// ValidMetrics lists the accepted metric names.
var ValidMetrics = []Metric{MetricSpeed, MetricMetersPerMinute, MetricAcceleration}

// ParseMetric validates a metric name from configuration.
func ParseMetric(s string) (Metric, error) {
	for _, m := range ValidMetrics {
		if s == string(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown intensity metric %q (valid: speed, m_per_min, acceleration)", s)
}

// metricValues materialises the per-frame metric for a series. Values are
// index-aligned with ts.Samples. Acceleration at the first sample of a
// contiguous run is zero since there is no predecessor to difference against.
func metricValues(ts *tracking.TimeSeries, metric Metric) []float64 {
	values := make([]float64, len(ts.Samples))
	switch metric {
	case MetricMetersPerMinute:
		for i, s := range ts.Samples {
			values[i] = s.Speed * 60.0
		}
	case MetricAcceleration:
		for _, run := range ts.Runs() {
			for i := run.Start + 1; i < run.End; i++ {
				dv := ts.Samples[i].Speed - ts.Samples[i-1].Speed
				values[i] = math.Abs(dv) * ts.SampleRate
			}
		}
	default: // MetricSpeed
		for i, s := range ts.Samples {
			values[i] = s.Speed
		}
	}
	return values
}
