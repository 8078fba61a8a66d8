package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pitchside-data/intensity.report/internal/pipeline"
)

// RenderIntensityChart writes a standalone HTML bar chart of worst-case
// intensities to w: one bar group per player, one series per window duration.
// Players appear in ascending id order so repeated renders are identical.
func RenderIntensityChart(w io.Writer, title string, windows []pipeline.WindowResult) error {
	if len(windows) == 0 {
		return fmt.Errorf("no windows to chart")
	}

	players := make(map[int]bool)
	durations := make(map[time.Duration]bool)
	byKey := make(map[[2]int64]float64)
	metric := windows[0].Window.Metric
	for _, wr := range windows {
		players[wr.Window.PlayerID] = true
		durations[wr.Window.Duration] = true
		byKey[[2]int64{int64(wr.Window.PlayerID), int64(wr.Window.Duration)}] = wr.Window.MeanIntensity
	}

	playerIDs := make([]int, 0, len(players))
	for id := range players {
		playerIDs = append(playerIDs, id)
	}
	sort.Ints(playerIDs)

	durs := make([]time.Duration, 0, len(durations))
	for d := range durations {
		durs = append(durs, d)
	}
	sort.Slice(durs, func(i, j int) bool { return durs[i] < durs[j] })

	xAxis := make([]string, len(playerIDs))
	for i, id := range playerIDs {
		xAxis[i] = fmt.Sprintf("Player %d", id)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("metric=%s windows=%d", metric, len(windows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Player"}),
		charts.WithYAxisOpts(opts.YAxis{Name: string(metric)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xAxis)

	for _, d := range durs {
		data := make([]opts.BarData, len(playerIDs))
		for i, id := range playerIDs {
			v, ok := byKey[[2]int64{int64(id), int64(d)}]
			if !ok {
				// gap or short series: no valid window for this duration
				data[i] = opts.BarData{Value: nil}
				continue
			}
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(fmt.Sprintf("%ds", int(d.Seconds())), data)
	}

	return bar.Render(w)
}
