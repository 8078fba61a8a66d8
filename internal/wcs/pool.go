package wcs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pitchside-data/intensity.report/internal/tracking"
)

// job is one (player, duration) cell of the cross-product. Each cell is
// independent: no shared mutable state, no ordering between completions.
type job struct {
	series   *tracking.TimeSeries
	duration time.Duration
}

// ComputeAll fans the player × duration cross-product out over a bounded pool
// of workers and gathers the results. Output ordering is deterministic
// (player id, then duration) regardless of completion order, so repeated runs
// over identical input are identical.
func ComputeAll(ctx context.Context, series map[int]*tracking.TimeSeries, durations []time.Duration, metric Metric, workers int) []Window {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan job)
	results := make(chan Window)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				for _, w := range ComputeWindows(j.series, []time.Duration{j.duration}, metric) {
					results <- w
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, ts := range series {
			for _, d := range durations {
				select {
				case jobs <- job{series: ts, duration: d}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []Window
	for w := range results {
		out = append(out, w)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].Duration < out[j].Duration
	})
	return out
}
