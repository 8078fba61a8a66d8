package wcs

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pitchside-data/intensity.report/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolFixture() map[int]*tracking.TimeSeries {
	series := make(map[int]*tracking.TimeSeries)
	for player := 1; player <= 8; player++ {
		speeds := make([]float64, 200)
		for i := range speeds {
			speeds[i] = float64((i*player)%7) + 1
		}
		series[player] = seriesWithSpeeds(player, 1, 0, speeds)
	}
	return series
}

func TestComputeAllOrderingAndCompleteness(t *testing.T) {
	series := poolFixture()
	durations := []time.Duration{10 * time.Second, 30 * time.Second}

	windows := ComputeAll(context.Background(), series, durations, MetricSpeed, 4)
	require.Len(t, windows, len(series)*len(durations))

	for i := 1; i < len(windows); i++ {
		prev, cur := windows[i-1], windows[i]
		ordered := prev.PlayerID < cur.PlayerID ||
			(prev.PlayerID == cur.PlayerID && prev.Duration < cur.Duration)
		assert.True(t, ordered, "windows out of order at %d: %+v then %+v", i, prev, cur)
	}
}

func TestComputeAllMatchesSequential(t *testing.T) {
	series := poolFixture()
	durations := []time.Duration{10 * time.Second, 60 * time.Second}

	parallel := ComputeAll(context.Background(), series, durations, MetricSpeed, 8)
	sequential := ComputeAll(context.Background(), series, durations, MetricSpeed, 1)

	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel and sequential results differ (-seq +par):\n%s", diff)
	}
}

func TestComputeAllIdempotent(t *testing.T) {
	series := poolFixture()
	durations := []time.Duration{30 * time.Second}

	first := ComputeAll(context.Background(), series, durations, MetricSpeed, 4)
	second := ComputeAll(context.Background(), series, durations, MetricSpeed, 4)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated runs differ:\n%s", diff)
	}
}

func TestComputeAllClampsWorkerCount(t *testing.T) {
	series := poolFixture()
	windows := ComputeAll(context.Background(), series, []time.Duration{10 * time.Second}, MetricSpeed, 0)
	assert.Len(t, windows, len(series))
}

func TestDistancesBands(t *testing.T) {
	ts := &tracking.TimeSeries{PlayerID: 1, SampleRate: 1, Samples: []tracking.FrameSample{
		{PlayerID: 1, Period: 1, Frame: 0, X: 0, Speed: 0},
		{PlayerID: 1, Period: 1, Frame: 1, X: 3, Speed: 3},  // jog: total only
		{PlayerID: 1, Period: 1, Frame: 2, X: 9, Speed: 6},  // high speed
		{PlayerID: 1, Period: 1, Frame: 3, X: 16, Speed: 7}, // sprint
		{PlayerID: 1, Period: 2, Frame: 4, X: 0, Speed: 0},  // period change: no step
	}}

	sum := Distances(ts, 5.28, 6.39)
	assert.InDelta(t, 16.0, sum.TotalDistance, 1e-9)
	assert.InDelta(t, 13.0, sum.HighSpeedDistance, 1e-9)
	assert.InDelta(t, 7.0, sum.SprintDistance, 1e-9)
}
