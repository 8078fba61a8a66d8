package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pitchside-data/intensity.report/internal/trajectory"
)

// Pitch dimensions in metres, centre-origin coordinates.
const (
	pitchLength = 105.0
	pitchWidth  = 68.0

	penaltyAreaDepth = 16.5
	penaltyAreaWidth = 40.32
	sixYardDepth     = 5.5
	sixYardWidth     = 18.32
	centreRadius     = 9.15
)

// speedBandColor maps an instantaneous speed to a trail colour, low to high
// demand: grey, blue, orange, red.
func speedBandColor(speed, hsr, sprint float64) color.Color {
	switch {
	case math.IsNaN(speed) || speed < 2.0:
		return color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	case speed < hsr:
		return color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	case speed < sprint:
		return color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	default:
		return color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	}
}

// SavePitchPlot renders a worst-case window's trajectory over a pitch outline
// and saves it as a PNG. The trail is coloured by speed band using the given
// high-speed-running and sprint thresholds in m/s.
func SavePitchPlot(slice trajectory.Slice, hsr, sprint float64, path string) error {
	if len(slice.Samples) == 0 {
		return fmt.Errorf("trajectory slice for player %d is empty", slice.Window.PlayerID)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Player %d worst case, %ds window, frames %d-%d",
		slice.Window.PlayerID, int(slice.Window.Duration.Seconds()),
		slice.Window.StartFrame, slice.Window.EndFrame)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.X.Min, p.X.Max = -pitchLength/2-3, pitchLength/2+3
	p.Y.Min, p.Y.Max = -pitchWidth/2-3, pitchWidth/2+3

	if err := addPitchLines(p); err != nil {
		return err
	}

	// Trail segments, one line per step so each takes its own band colour.
	for i := 1; i < len(slice.Samples); i++ {
		a, b := slice.Samples[i-1], slice.Samples[i]
		seg, err := plotter.NewLine(plotter.XYs{{X: a.X, Y: a.Y}, {X: b.X, Y: b.Y}})
		if err != nil {
			return fmt.Errorf("failed to build trail segment: %w", err)
		}
		seg.Width = vg.Points(1.5)
		seg.Color = speedBandColor(b.Speed, hsr, sprint)
		p.Add(seg)
	}

	// Mark the window start so direction of travel is readable.
	start, err := plotter.NewScatter(plotter.XYs{{X: slice.Samples[0].X, Y: slice.Samples[0].Y}})
	if err != nil {
		return fmt.Errorf("failed to build start marker: %w", err)
	}
	start.GlyphStyle.Shape = draw.CircleGlyph{}
	start.GlyphStyle.Radius = vg.Points(3)
	start.GlyphStyle.Color = color.RGBA{G: 0x99, A: 0xff}
	p.Add(start)

	if err := p.Save(10*vg.Inch, 7*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save pitch plot: %w", err)
	}
	return nil
}

func addPitchLines(p *plot.Plot) error {
	lineColor := color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	hl, hw := pitchLength/2, pitchWidth/2

	add := func(pts plotter.XYs) error {
		ln, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build pitch line: %w", err)
		}
		ln.Width = vg.Points(0.5)
		ln.Color = lineColor
		p.Add(ln)
		return nil
	}

	// Outline and halfway line.
	if err := add(plotter.XYs{
		{X: -hl, Y: -hw}, {X: hl, Y: -hw}, {X: hl, Y: hw}, {X: -hl, Y: hw}, {X: -hl, Y: -hw},
	}); err != nil {
		return err
	}
	if err := add(plotter.XYs{{X: 0, Y: -hw}, {X: 0, Y: hw}}); err != nil {
		return err
	}

	// Penalty and six-yard boxes at both ends.
	boxes := []struct{ depth, width float64 }{
		{penaltyAreaDepth, penaltyAreaWidth},
		{sixYardDepth, sixYardWidth},
	}
	for _, b := range boxes {
		half := b.width / 2
		if err := add(plotter.XYs{
			{X: -hl, Y: -half}, {X: -hl + b.depth, Y: -half}, {X: -hl + b.depth, Y: half}, {X: -hl, Y: half},
		}); err != nil {
			return err
		}
		if err := add(plotter.XYs{
			{X: hl, Y: -half}, {X: hl - b.depth, Y: -half}, {X: hl - b.depth, Y: half}, {X: hl, Y: half},
		}); err != nil {
			return err
		}
	}

	// Centre circle.
	circle := make(plotter.XYs, 0, 65)
	for i := 0; i <= 64; i++ {
		theta := 2 * math.Pi * float64(i) / 64
		circle = append(circle, plotter.XY{X: centreRadius * math.Cos(theta), Y: centreRadius * math.Sin(theta)})
	}
	return add(circle)
}
