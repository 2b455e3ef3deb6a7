package report

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/wesleyorama2/simsweep/internal/sweep/aggregate"
)

// Series is one line of the comparison chart.
type Series struct {
	Label  string
	Values []float64
}

// Chart is the renderer-independent description of the comparison plot:
// one series per layout over the concurrency levels.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Levels []int
	Series []Series
}

// NewChart builds the chart of a matrix.
func NewChart(m *aggregate.Matrix, opts Options) Chart {
	opts = opts.withDefaults()
	c := Chart{
		Title:  opts.Title,
		XLabel: XLabel(opts.Mode),
		YLabel: "Events per second",
		Levels: m.Levels,
		Series: make([]Series, len(m.Layouts)),
	}
	for i, l := range m.Layouts {
		c.Series[i] = Series{Label: l.Label(), Values: m.Row(i)}
	}
	return c
}

// Renderer draws a chart to a file.
type Renderer interface {
	Render(path string, c Chart) error
}

// Plotter renders charts with gonum/plot. The image format follows the
// file extension (png, svg, pdf, eps, jpg, tif).
type Plotter struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotter returns a Plotter with the default image size.
func NewPlotter() *Plotter {
	return &Plotter{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

// Plot builds the gonum plot of c without saving it.
func (pl *Plotter) Plot(c Chart) (*plot.Plot, error) {
	for _, s := range c.Series {
		if len(s.Values) != len(c.Levels) {
			return nil, fmt.Errorf("series %s has %d values for %d levels", s.Label, len(s.Values), len(c.Levels))
		}
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	colors := seriesColors(len(c.Series))
	for i, s := range c.Series {
		xys := make(plotter.XYs, len(c.Levels))
		for j, level := range c.Levels {
			xys[j].X = float64(level)
			xys[j].Y = s.Values[j]
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Label, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		points.Color = colors[i]
		points.Shape = draw.CircleGlyph{}

		p.Add(line, points)
		p.Legend.Add(s.Label, line, points)
	}

	ticks := make([]plot.Tick, len(c.Levels))
	for i, level := range c.Levels {
		ticks[i] = plot.Tick{Value: float64(level), Label: strconv.Itoa(level)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	p.Y.Min = 0
	if p.Y.Max <= 0 {
		p.Y.Max = 1
	}
	return p, nil
}

// Render saves the chart to path.
func (pl *Plotter) Render(path string, c Chart) error {
	p, err := pl.Plot(c)
	if err != nil {
		return err
	}
	w, h := pl.Width, pl.Height
	if w <= 0 || h <= 0 {
		w, h = 8*vg.Inch, 5*vg.Inch
	}
	return p.Save(w, h, path)
}

// seriesColors picks n qualitative colors, cycling when the palette is
// exhausted.
func seriesColors(n int) []color.Color {
	size := min(max(n, 3), 12)
	out := make([]color.Color, n)
	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Paired", size)
	if err != nil {
		for i := range out {
			out[i] = color.Black
		}
		return out
	}
	colors := palette.Colors()
	for i := range out {
		out[i] = colors[i%len(colors)]
	}
	return out
}
